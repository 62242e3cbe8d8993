package repository

import (
	"context"

	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

// TileRepository выполняет запросы слоёв векторных тайлов
type TileRepository interface {
	// RenderLayer выполняет запрос ST_AsMVT и возвращает бинарный слой.
	// Пустой результат возвращается как пустой срез без ошибки.
	RenderLayer(ctx context.Context, stmt sqlbuild.Statement) ([]byte, error)
}
