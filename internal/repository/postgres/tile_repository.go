package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

type tileRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewTileRepository создает новый экземпляр TileRepository
func NewTileRepository(db *DB) repository.TileRepository {
	return &tileRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// RenderLayer выполняет запрос слоя и возвращает MVT blob.
// Отсутствие строк и NULL считаются пустым слоем.
func (r *tileRepository) RenderLayer(ctx context.Context, stmt sqlbuild.Statement) ([]byte, error) {
	var tile []byte
	err := r.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&tile)
	if errors.Is(err, sql.ErrNoRows) {
		return []byte{}, nil
	}
	if err != nil {
		r.logger.Debug("Layer query failed", zap.String("sql", stmt.SQL), zap.Error(err))
		return nil, fmt.Errorf("render layer: %w", err)
	}
	if tile == nil {
		tile = []byte{}
	}
	return tile, nil
}
