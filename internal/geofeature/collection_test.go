package geofeature_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetmap-tiles/internal/geofeature"
	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

func TestAsFeatureCollection(t *testing.T) {
	q := geofeature.CollectionQuery{
		Table:      "osm_islands_areas",
		Properties: []string{"name"},
		Centroid:   true,
	}

	stmt, err := q.AsFeatureCollection(nil)
	require.NoError(t, err)

	expected := `SELECT jsonb_build_object('type', 'FeatureCollection', 'features', COALESCE(jsonb_agg(` +
		`jsonb_build_object('type', 'Feature', 'id', "id", 'geometry', ST_AsGeoJSON(ST_Transform(ST_Centroid("geom"), 4326), 6)::jsonb, ` +
		`'properties', jsonb_build_object('name', "name"))), '[]'::jsonb)) FROM "osm_islands_areas"`
	assert.Equal(t, expected, stmt.SQL)
	assert.Empty(t, stmt.Args)
}

func TestAsFeatureCollection_BBox(t *testing.T) {
	q := geofeature.CollectionQuery{
		Namespace: "public",
		Table:     "osm_admin_boundary",
		Filters:   []sqlbuild.Node{sqlbuild.Raw(`"name" IS NOT NULL`)},
		Precision: 4,
	}
	bbox := orb.Bound{Min: orb.Point{147.0, -9.6}, Max: orb.Point{147.4, -9.3}}

	stmt, err := q.AsFeatureCollection(&bbox)
	require.NoError(t, err)

	assert.Contains(t, stmt.SQL, `FROM "public"."osm_admin_boundary" WHERE "name" IS NOT NULL AND "geom" && ST_Transform(ST_MakeEnvelope($1, $2, $3, $4, 4326), 3857)`)
	assert.Contains(t, stmt.SQL, `'properties', '{}'::jsonb`)
	assert.Contains(t, stmt.SQL, `, 4)::jsonb`)
	assert.Equal(t, []any{147.0, -9.6, 147.4, -9.3}, stmt.Args)
}

func TestAsFeatureCollection_MissingTable(t *testing.T) {
	_, err := geofeature.CollectionQuery{}.AsFeatureCollection(nil)
	assert.ErrorIs(t, err, geofeature.ErrMissingTable)
}
