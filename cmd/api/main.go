package main

// @title Streetmap Tiles API
// @version 1.0.0
// @description Векторные тайлы (MVT) и GeoJSON коллекции из данных OpenStreetMap в PostGIS.
// @description
// @description Основные возможности:
// @description - Тайлы наборов слоев: дороги по классам, административные границы, острова
// @description - Отладочный просмотр содержимого тайла
// @description - GeoJSON коллекции с фильтром по bbox
// @description - Прогрев кеша тайлов через очередь

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/streetmap-tiles/docs/swagger"
	"github.com/streetmap-tiles/internal/config"
	httpDelivery "github.com/streetmap-tiles/internal/delivery/http"
	"github.com/streetmap-tiles/internal/delivery/http/handler"
	"github.com/streetmap-tiles/internal/layers"
	"github.com/streetmap-tiles/internal/mvt"
	"github.com/streetmap-tiles/internal/pkg/logger"
	"github.com/streetmap-tiles/internal/repository/cache"
	"github.com/streetmap-tiles/internal/repository/postgres"
	redisRepo "github.com/streetmap-tiles/internal/repository/redis"
	"github.com/streetmap-tiles/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Streetmap Tiles API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("envelope", cfg.Tile.Envelope),
		zap.Int("buffer", cfg.Tile.Buffer),
		zap.Int("extent", cfg.Tile.Extent),
	)

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Repositories
	tileRepo := postgres.NewTileRepository(db)
	schemaRepo := postgres.NewSchemaRepository(db)
	featureRepo := postgres.NewFeatureRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient, cfg.Cache.KeyPrefix)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)

	// 6. Layer catalog - ошибка конфигурации слоя останавливает запуск
	envelope, err := mvt.ParseEnvelopeMode(cfg.Tile.Envelope)
	if err != nil {
		log.Fatal("Invalid tile envelope", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	catalog, err := layers.Build(ctx, schemaRepo, layers.Options{Envelope: envelope}, log)
	cancel()
	if err != nil {
		log.Fatal("Failed to build layer catalog", zap.Error(err))
	}

	// 7. Use cases
	tileUC := usecase.NewTileUseCase(catalog, tileRepo, cacheRepo, log, usecase.TileOptions{
		Buffer:       cfg.Tile.Buffer,
		Extent:       cfg.Tile.Extent,
		QueryTimeout: cfg.Tile.QueryTimeout,
		Concurrency:  cfg.Tile.Concurrency,
		CacheEnabled: cfg.Cache.Enabled,
		CacheTTL:     cfg.Cache.TilesCacheTTL,
	})
	featureUC := usecase.NewFeatureUseCase(catalog, featureRepo, log, cfg.Tile.QueryTimeout)
	seedUC := usecase.NewSeedUseCase(catalog, streamRepo, log, cfg.Worker.MaxTilesPerJob)

	// 8. HTTP handlers
	tileHandler := handler.NewTileHandler(tileUC, seedUC, log, cfg.Tile.CacheControl)
	featureHandler := handler.NewFeatureHandler(featureUC, log)
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"postgres": db,
		"redis":    redisClient,
	}, log)

	// 9. HTTP server
	server := httpDelivery.NewServer(cfg, log, tileHandler, featureHandler, healthHandler)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
