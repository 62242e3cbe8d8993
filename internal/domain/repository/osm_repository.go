package repository

import (
	"context"

	"github.com/streetmap-tiles/internal/domain"
)

// OSMRepository сохраняет объекты из OSM выгрузки.
// Каждая запись заменяет существующую с тем же id.
type OSMRepository interface {
	UpsertHighways(ctx context.Context, highways []domain.Highway) (int, error)
	UpsertAdminBoundaries(ctx context.Context, boundaries []domain.AdminBoundary) (int, error)
	// UpsertIslands сохраняет линии островов и полигоны для замкнутых линий.
	// Возвращает количество линий и количество полигонов.
	UpsertIslands(ctx context.Context, islands []domain.Island) (lines int, areas int, err error)
	UpsertFacebookRoads(ctx context.Context, roads []domain.FacebookRoad) (int, error)
}
