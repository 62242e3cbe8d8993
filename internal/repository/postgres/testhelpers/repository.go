package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/repository/postgres"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewTileRepositoryForTest creates a tile repository with test database and logger
func NewTileRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.TileRepository {
	return postgres.NewTileRepository(NewDBForTest(db, logger))
}

// NewSchemaRepositoryForTest creates a schema repository with test database and logger
func NewSchemaRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.SchemaRepository {
	return postgres.NewSchemaRepository(NewDBForTest(db, logger))
}

// NewFeatureRepositoryForTest creates a feature repository with test database and logger
func NewFeatureRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.FeatureRepository {
	return postgres.NewFeatureRepository(NewDBForTest(db, logger))
}

// NewOSMRepositoryForTest creates an OSM repository with test database and logger
func NewOSMRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.OSMRepository {
	return postgres.NewOSMRepository(NewDBForTest(db, logger))
}
