package importer

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/project"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
)

var (
	ErrGeoPackageHeader = errors.New("gpkg: invalid geometry header")
	ErrNoFeatureTables  = errors.New("gpkg: no feature tables")
)

const webMercatorSRID = 3857

// envelopeSizes - размер envelope по индикатору из флагов заголовка
var envelopeSizes = [...]int{0, 32, 48, 48, 64}

// DecodeGeoPackageGeometry разбирает geometry blob GeoPackage: заголовок
// "GP", версия, флаги, srs_id и envelope, затем WKB.
func DecodeGeoPackageGeometry(blob []byte) (orb.Geometry, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, ErrGeoPackageHeader
	}
	flags := blob[3]
	if flags&0x10 != 0 {
		// empty geometry
		return nil, nil
	}

	indicator := int(flags>>1) & 0x07
	if indicator >= len(envelopeSizes) {
		return nil, fmt.Errorf("%w: envelope indicator %d", ErrGeoPackageHeader, indicator)
	}
	offset := 8 + envelopeSizes[indicator]
	if len(blob) <= offset {
		return nil, fmt.Errorf("%w: truncated", ErrGeoPackageHeader)
	}
	return wkb.Unmarshal(blob[offset:])
}

// GeoPackageSRID возвращает srs_id из заголовка geometry blob
func GeoPackageSRID(blob []byte) (int32, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return 0, ErrGeoPackageHeader
	}
	var order binary.ByteOrder = binary.BigEndian
	if blob[3]&0x01 != 0 {
		order = binary.LittleEndian
	}
	return int32(order.Uint32(blob[4:8])), nil
}

// toMultiLineString приводит линию или мультилинию к мультилинии в
// EPSG:3857. Геометрия в других srs считается EPSG:4326.
func toMultiLineString(g orb.Geometry, srid int32) (orb.MultiLineString, bool) {
	var mls orb.MultiLineString
	switch v := g.(type) {
	case orb.LineString:
		mls = orb.MultiLineString{v}
	case orb.MultiLineString:
		mls = v
	default:
		return nil, false
	}
	if len(mls) == 0 {
		return nil, false
	}
	if srid == webMercatorSRID {
		return mls, true
	}
	return project.MultiLineString(mls, project.WGS84.ToMercator), true
}

type geometryColumn struct {
	Table  string `db:"table_name"`
	Column string `db:"column_name"`
}

type facebookRow struct {
	WayFBID int64          `db:"way_fbid"`
	Highway sql.NullString `db:"highway_tag"`
	Geom    []byte         `db:"geom"`
}

// RunGeoPackage импортирует дороги Facebook AI (RapiD) из .gpkg файла.
// Каждая таблица с геометрией должна иметь колонки way_fbid и highway_tag.
func (im *Importer) RunGeoPackage(ctx context.Context, path string) (*domain.ImportStats, error) {
	start := time.Now()

	db, err := sqlx.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open geopackage: %w", err)
	}
	defer db.Close()

	var columns []geometryColumn
	if err := db.SelectContext(ctx, &columns, `SELECT table_name, column_name FROM gpkg_geometry_columns`); err != nil {
		return nil, fmt.Errorf("read gpkg_geometry_columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, ErrNoFeatureTables
	}

	stats := &domain.ImportStats{}
	for _, col := range columns {
		im.logger.Info("Importing GeoPackage layer", zap.String("table", col.Table))
		if err := im.importFacebookTable(ctx, db, col, stats); err != nil {
			return nil, fmt.Errorf("layer %s: %w", col.Table, err)
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func (im *Importer) importFacebookTable(ctx context.Context, db *sqlx.DB, col geometryColumn, stats *domain.ImportStats) error {
	query := fmt.Sprintf(`SELECT way_fbid, highway_tag, %s AS geom FROM %s`,
		pq.QuoteIdentifier(col.Column), pq.QuoteIdentifier(col.Table))

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	// seen - позиция way_fbid в текущей пачке, повтор заменяет прежнюю запись
	batch := make([]domain.FacebookRoad, 0, im.batchSize)
	seen := make(map[int64]int, im.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := im.repo.UpsertFacebookRoads(ctx, batch)
		if err != nil {
			return fmt.Errorf("upsert facebook roads: %w", err)
		}
		stats.FacebookRoads += n
		batch = batch[:0]
		clear(seen)
		return nil
	}

	for rows.Next() {
		var row facebookRow
		if err := rows.StructScan(&row); err != nil {
			return err
		}

		g, err := DecodeGeoPackageGeometry(row.Geom)
		if err != nil {
			stats.Skipped++
			im.logger.Debug("Feature skipped", zap.Int64("way_fbid", row.WayFBID), zap.Error(err))
			continue
		}
		srid, _ := GeoPackageSRID(row.Geom)
		mls, ok := toMultiLineString(g, srid)
		if !ok {
			stats.Skipped++
			continue
		}

		road := domain.FacebookRoad{
			ID:       row.WayFBID,
			Highway:  row.Highway.String,
			Geometry: mls,
		}
		if i, dup := seen[road.ID]; dup {
			batch[i] = road
			continue
		}
		seen[road.ID] = len(batch)
		batch = append(batch, road)
		if len(batch) >= im.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return flush()
}
