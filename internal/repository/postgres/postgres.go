package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/config"
)

// minPostGISMajor - ST_TileEnvelope появился в PostGIS 3.0
const minPostGISMajor = 3

// DB - пул соединений к PostGIS с тайловыми и OSM таблицами
type DB struct {
	*sqlx.DB
	logger  *zap.Logger
	postgis string
}

// New открывает пул через pgx и проверяет, что PostGIS умеет ST_AsMVT и
// ST_TileEnvelope. Без этого сервис тайлов не стартует.
func New(cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	connConfig, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	if cfg.ApplicationName != "" {
		connConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	db := sqlx.NewDb(stdlib.OpenDB(*connConfig), "pgx")
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var version string
	if err := db.GetContext(ctx, &version, "SELECT PostGIS_Lib_Version()"); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgis is not available: %w", err)
	}
	if err := checkPostGIS(version); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName),
		zap.String("postgis", version),
		zap.Int("max_conns", cfg.MaxConns),
	)

	return &DB{DB: db, logger: logger, postgis: version}, nil
}

// checkPostGIS проверяет версию вида "3.4.2"
func checkPostGIS(version string) error {
	var major, minor int
	if _, err := fmt.Sscanf(version, "%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("unrecognized postgis version %q: %w", version, err)
	}
	if major < minPostGISMajor {
		return fmt.Errorf("postgis %s is too old, %d.0 or newer is required", version, minPostGISMajor)
	}
	return nil
}

// PostGIS возвращает версию библиотеки PostGIS сервера
func (db *DB) PostGIS() string {
	return db.postgis
}

func (db *DB) Close() error {
	db.logger.Info("Closing PostgreSQL connection")
	return db.DB.Close()
}

// Health проверяет соединение и отдает статистику пула в debug лог
func (db *DB) Health(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	stats := db.Stats()
	db.logger.Debug("PostgreSQL pool",
		zap.Int("open", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int64("wait_count", stats.WaitCount))
	return nil
}

// NewDBForTest wraps an already opened connection
func NewDBForTest(sqlxDB *sqlx.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{
		DB:     sqlxDB,
		logger: logger,
	}
}
