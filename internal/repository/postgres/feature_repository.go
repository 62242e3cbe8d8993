package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

type featureRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewFeatureRepository создает новый экземпляр FeatureRepository
func NewFeatureRepository(db *DB) repository.FeatureRepository {
	return &featureRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// GetFeatureCollection выполняет запрос, собирающий jsonb FeatureCollection
func (r *featureRepository) GetFeatureCollection(ctx context.Context, stmt sqlbuild.Statement) (*geojson.FeatureCollection, error) {
	var raw []byte
	if err := r.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&raw); err != nil {
		r.logger.Error("Failed to query feature collection", zap.Error(err))
		return nil, fmt.Errorf("feature collection: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return fc, nil
}
