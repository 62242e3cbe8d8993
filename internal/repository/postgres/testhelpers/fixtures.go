package testhelpers

import (
	"context"
	"fmt"
	"testing"
)

// PortMoresby is the tile the fixtures are placed in.
const (
	PortMoresbyZoom = 14
	PortMoresbyX    = 14891
	PortMoresbyY    = 8624
)

// fixtureTable holds features in EPSG:4326 so layers built on it exercise
// the reprojection path.
const fixtureTable = `
	CREATE TABLE IF NOT EXISTS %[1]s (
		id      BIGINT PRIMARY KEY,
		geom    geometry(LineString, 4326) NOT NULL,
		name    TEXT,
		highway TEXT
	)`

// fixtureRows places a primary and a secondary road through the centre of
// the Port Moresby tile and one road on the opposite side of the globe.
const fixtureRows = `
	INSERT INTO %[1]s (id, geom, name, highway)
	SELECT 1, ST_Transform(ST_MakeLine(ST_Translate(c, -20, 0), ST_Translate(c, 20, 0)), 4326), 'Waigani Drive', 'primary'
	FROM (SELECT ST_Centroid(ST_TileEnvelope(%[2]d, %[3]d, %[4]d)) AS c) s
	UNION ALL
	SELECT 3, ST_Transform(ST_MakeLine(ST_Translate(c, 0, -20), ST_Translate(c, 0, 20)), 4326), 'Angau Drive', 'secondary'
	FROM (SELECT ST_Centroid(ST_TileEnvelope(%[2]d, %[3]d, %[4]d)) AS c) s
	UNION ALL
	SELECT 2, ST_SetSRID(ST_MakeLine(ST_MakePoint(-30, 10), ST_MakePoint(-29.9, 10.1)), 4326), 'Far Away', 'primary'`

// CreateRoadFixture creates a 4326 road table with the given name and
// drops it when the test finishes.
func CreateRoadFixture(t *testing.T, tdb *TestDB, table string) {
	t.Helper()
	ctx := context.Background()

	if _, err := tdb.DB.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		t.Fatalf("drop fixture table: %v", err)
	}
	if _, err := tdb.DB.ExecContext(ctx, fmt.Sprintf(fixtureTable, table)); err != nil {
		t.Fatalf("create fixture table: %v", err)
	}
	rows := fmt.Sprintf(fixtureRows, table, PortMoresbyZoom, PortMoresbyX, PortMoresbyY)
	if _, err := tdb.DB.ExecContext(ctx, rows); err != nil {
		t.Fatalf("load fixture rows: %v", err)
	}

	t.Cleanup(func() {
		_, _ = tdb.DB.ExecContext(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	})
}
