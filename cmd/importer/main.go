package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/config"
	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/importer"
	"github.com/streetmap-tiles/internal/pkg/logger"
	"github.com/streetmap-tiles/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	file := flag.String("file", "", "OSM .pbf extract")
	overpass := flag.String("overpass", "", "ISO 3166-1 alpha-2 country code to fetch from Overpass")
	gpkg := flag.String("gpkg", "", "Facebook AI roads GeoPackage (.gpkg)")
	kinds := flag.String("kinds", strings.Join(cfg.Import.Kinds, ","), "comma separated: highways,boundaries,islands")
	batch := flag.Int("batch", cfg.Import.BatchSize, "rows per upsert transaction")
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply schema migrations")
	flag.Parse()

	modes := 0
	for _, v := range []string{*file, *overpass, *gpkg} {
		if v != "" {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "usage: importer (-file extract.osm.pbf | -overpass PG | -gpkg roads.gpkg) [-kinds highways,boundaries,islands]")
		os.Exit(2)
	}

	log, err := logger.New(cfg.Log.Level, "importer")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	selected := config.ParseList(*kinds)
	if err := importer.ValidKinds(selected); err != nil {
		log.Fatal("Invalid kinds", zap.Error(err))
	}

	if !*skipMigrations {
		if err := postgres.RunMigrations(cfg.GetDatabaseURL(), log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	im := importer.New(postgres.NewOSMRepository(db), log, *batch)

	var stats *domain.ImportStats
	switch {
	case *gpkg != "":
		log.Info("GeoPackage import started", zap.String("file", *gpkg), zap.Int("batch", *batch))
		stats, err = im.RunGeoPackage(ctx, *gpkg)
	case *overpass != "":
		log.Info("Overpass import started",
			zap.String("country", *overpass),
			zap.String("endpoint", cfg.Import.OverpassURL),
			zap.Strings("kinds", selected))
		client := importer.NewOverpassClient(cfg.Import.OverpassURL, cfg.Import.OverpassTimeout, log)
		stats, err = im.RunOverpass(ctx, client, *overpass, selected)
	default:
		f, openErr := os.Open(*file)
		if openErr != nil {
			log.Fatal("Failed to open extract", zap.String("file", *file), zap.Error(openErr))
		}
		defer f.Close()

		log.Info("Import started",
			zap.String("file", *file),
			zap.Strings("kinds", selected),
			zap.Int("batch", *batch))
		stats, err = im.Run(ctx, f, selected)
	}
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}

	log.Info("Import finished",
		zap.Int("highways", stats.Highways),
		zap.Int("boundaries", stats.Boundaries),
		zap.Int("islands", stats.Islands),
		zap.Int("island_areas", stats.IslandAreas),
		zap.Int("facebook_roads", stats.FacebookRoads),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("took", stats.Duration))
}
