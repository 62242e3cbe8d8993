package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/domain/repository"
)

type osmRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewOSMRepository создает новый экземпляр OSMRepository
func NewOSMRepository(db *DB) repository.OSMRepository {
	return &osmRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

const (
	insertHighwaySQL = `
		INSERT INTO osm_highway (id, geom, name, highway)
		VALUES ($1, ST_Multi(ST_SetSRID(ST_GeomFromWKB($2), 3857)), $3, $4)`
	insertBoundarySQL = `
		INSERT INTO osm_admin_boundary (id, geom, name)
		VALUES ($1, ST_Multi(ST_SetSRID(ST_GeomFromWKB($2), 3857)), $3)`
	insertIslandSQL = `
		INSERT INTO osm_islands (id, geom, name)
		VALUES ($1, ST_Multi(ST_SetSRID(ST_GeomFromWKB($2), 3857)), $3)`
	insertIslandAreaSQL = `
		INSERT INTO osm_islands_areas (id, geom, name)
		VALUES ($1, ST_Multi(ST_MakeValid(ST_SetSRID(ST_GeomFromWKB($2), 3857))), $3)`
	insertFacebookRoadSQL = `
		INSERT INTO facebookai_road (id, geom, highway)
		VALUES ($1, ST_Multi(ST_SetSRID(ST_GeomFromWKB($2), 3857)), $3)`
)

// UpsertHighways заменяет дороги с теми же id
func (r *osmRepository) UpsertHighways(ctx context.Context, highways []domain.Highway) (int, error) {
	if len(highways) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(highways))
	for i, h := range highways {
		ids[i] = h.ID
	}

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := deleteByID(ctx, tx, "osm_highway", ids); err != nil {
			return err
		}
		stmt, err := tx.PreparexContext(ctx, insertHighwaySQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, h := range highways {
			if _, err := stmt.ExecContext(ctx, h.ID, wkb.Value(h.Geometry), nullString(h.Name), h.Highway); err != nil {
				return fmt.Errorf("insert highway %d: %w", h.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to upsert highways", zap.Int("count", len(highways)), zap.Error(err))
		return 0, err
	}
	return len(highways), nil
}

// UpsertAdminBoundaries заменяет границы с теми же id
func (r *osmRepository) UpsertAdminBoundaries(ctx context.Context, boundaries []domain.AdminBoundary) (int, error) {
	if len(boundaries) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(boundaries))
	for i, b := range boundaries {
		ids[i] = b.ID
	}

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := deleteByID(ctx, tx, "osm_admin_boundary", ids); err != nil {
			return err
		}
		stmt, err := tx.PreparexContext(ctx, insertBoundarySQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, b := range boundaries {
			if _, err := stmt.ExecContext(ctx, b.ID, wkb.Value(b.Geometry), nullString(b.Name)); err != nil {
				return fmt.Errorf("insert boundary %d: %w", b.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to upsert admin boundaries", zap.Int("count", len(boundaries)), zap.Error(err))
		return 0, err
	}
	return len(boundaries), nil
}

// UpsertIslands заменяет линии островов, а для замкнутых линий и полигоны
func (r *osmRepository) UpsertIslands(ctx context.Context, islands []domain.Island) (int, int, error) {
	if len(islands) == 0 {
		return 0, 0, nil
	}

	ids := make([]int64, len(islands))
	for i, island := range islands {
		ids[i] = island.ID
	}

	areas := 0
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := deleteByID(ctx, tx, "osm_islands", ids); err != nil {
			return err
		}
		if err := deleteByID(ctx, tx, "osm_islands_areas", ids); err != nil {
			return err
		}

		lineStmt, err := tx.PreparexContext(ctx, insertIslandSQL)
		if err != nil {
			return err
		}
		defer lineStmt.Close()

		areaStmt, err := tx.PreparexContext(ctx, insertIslandAreaSQL)
		if err != nil {
			return err
		}
		defer areaStmt.Close()

		for i := range islands {
			island := &islands[i]
			if _, err := lineStmt.ExecContext(ctx, island.ID, wkb.Value(island.Geometry), nullString(island.Name)); err != nil {
				return fmt.Errorf("insert island %d: %w", island.ID, err)
			}
			if !island.Closed() {
				continue
			}
			if _, err := areaStmt.ExecContext(ctx, island.ID, wkb.Value(island.Polygon()), nullString(island.Name)); err != nil {
				return fmt.Errorf("insert island area %d: %w", island.ID, err)
			}
			areas++
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to upsert islands", zap.Int("count", len(islands)), zap.Error(err))
		return 0, 0, err
	}
	return len(islands), areas, nil
}

// UpsertFacebookRoads заменяет дороги Facebook AI с теми же way_fbid
func (r *osmRepository) UpsertFacebookRoads(ctx context.Context, roads []domain.FacebookRoad) (int, error) {
	if len(roads) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(roads))
	for i, road := range roads {
		ids[i] = road.ID
	}

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := deleteByID(ctx, tx, "facebookai_road", ids); err != nil {
			return err
		}
		stmt, err := tx.PreparexContext(ctx, insertFacebookRoadSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, road := range roads {
			if _, err := stmt.ExecContext(ctx, road.ID, wkb.Value(road.Geometry), road.Highway); err != nil {
				return fmt.Errorf("insert facebook road %d: %w", road.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to upsert facebook roads", zap.Int("count", len(roads)), zap.Error(err))
		return 0, err
	}
	return len(roads), nil
}

func (r *osmRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Warn("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

func deleteByID(ctx context.Context, tx *sqlx.Tx, table string, ids []int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", pq.QuoteIdentifier(table))
	if _, err := tx.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
