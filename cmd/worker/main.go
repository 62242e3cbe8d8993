package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/config"
	"github.com/streetmap-tiles/internal/layers"
	"github.com/streetmap-tiles/internal/mvt"
	"github.com/streetmap-tiles/internal/pkg/logger"
	"github.com/streetmap-tiles/internal/repository/cache"
	"github.com/streetmap-tiles/internal/repository/postgres"
	redisRepo "github.com/streetmap-tiles/internal/repository/redis"
	"github.com/streetmap-tiles/internal/usecase"
	"github.com/streetmap-tiles/internal/worker"
	"github.com/streetmap-tiles/internal/worker/seed"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Tile Seed Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_tiles_per_job", cfg.Worker.MaxTilesPerJob))

	if !cfg.Cache.Enabled {
		log.Warn("Cache is disabled, seeding renders tiles without storing them")
	}

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

	// 5. Initialize repositories
	tileRepo := postgres.NewTileRepository(db)
	schemaRepo := postgres.NewSchemaRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient, cfg.Cache.KeyPrefix)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)

	envelope, err := mvt.ParseEnvelopeMode(cfg.Tile.Envelope)
	if err != nil {
		log.Fatal("Invalid tile envelope", zap.Error(err))
	}

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 10*time.Second)
	catalog, err := layers.Build(buildCtx, schemaRepo, layers.Options{Envelope: envelope}, log)
	buildCancel()
	if err != nil {
		log.Fatal("Failed to build layer catalog", zap.Error(err))
	}

	// 6. Initialize use cases
	tileUC := usecase.NewTileUseCase(catalog, tileRepo, cacheRepo, log, usecase.TileOptions{
		Buffer:       cfg.Tile.Buffer,
		Extent:       cfg.Tile.Extent,
		QueryTimeout: cfg.Tile.QueryTimeout,
		Concurrency:  cfg.Tile.Concurrency,
		CacheEnabled: cfg.Cache.Enabled,
		CacheTTL:     cfg.Cache.TilesCacheTTL,
	})

	// 7. Initialize workers
	seedWorker := seed.NewSeedWorker(
		streamRepo,
		tileUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.BatchSize,
		cfg.Worker.MaxTilesPerJob,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log, worker.DefaultShutdownTimeout)
	workerManager.Register(seedWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Stop before cancel: текущий тайл дорендерится, задание останется в pending
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}
	cancel()

	log.Info("Worker shutdown complete")
}
