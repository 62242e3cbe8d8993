package repository

import (
	"context"

	"github.com/paulmach/orb/geojson"

	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

// FeatureRepository выполняет запросы GeoJSON коллекций
type FeatureRepository interface {
	GetFeatureCollection(ctx context.Context, stmt sqlbuild.Statement) (*geojson.FeatureCollection, error)
}
