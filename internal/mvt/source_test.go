package mvt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetmap-tiles/internal/mvt"
	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

func highwaySchema(srid int) mvt.Schema {
	return mvt.Schema{
		Table: "osm_highway",
		Columns: []mvt.Column{
			{Name: "id", Kind: mvt.ColumnPrimaryKey},
			{Name: "geom", Kind: mvt.ColumnGeometry, SRID: srid},
			{Name: "name", Kind: mvt.ColumnPlain},
			{Name: "highway", Kind: mvt.ColumnPlain},
		},
	}
}

func TestFromModel_Derivation(t *testing.T) {
	q, err := mvt.FromModel(highwaySchema(3857))
	require.NoError(t, err)

	assert.Equal(t, "osm_highway", q.Table)
	assert.Equal(t, "geom", q.Field)
	assert.Equal(t, "id", q.PK)
	assert.Equal(t, "osm_highway", q.LayerName())
	assert.Equal(t, []string{"name", "highway"}, q.Attributes)
	assert.False(t, q.Transform)
}

func TestFromModel_Transform(t *testing.T) {
	tests := []struct {
		srid      int
		transform bool
	}{
		{4326, true},
		{3857, false},
		{0, false},
	}

	for _, tt := range tests {
		q, err := mvt.FromModel(highwaySchema(tt.srid))
		require.NoError(t, err)
		assert.Equal(t, tt.transform, q.Transform, "srid %d", tt.srid)
	}
}

func TestFromModel_Overrides(t *testing.T) {
	schema := highwaySchema(4326)
	schema.Columns = append(schema.Columns,
		mvt.Column{Name: "label_point", Kind: mvt.ColumnGeometry, SRID: 3857},
		mvt.Column{Name: "osm_id", Kind: mvt.ColumnPlain},
	)

	q, err := mvt.FromModel(schema,
		mvt.WithField("label_point"),
		mvt.WithPK("osm_id"),
		mvt.WithLayer("labels"),
		mvt.WithAttributes("name"),
		mvt.WithMinZoom(8),
		mvt.WithCentroid(),
		mvt.WithEnvelope(mvt.EnvelopeExact),
	)
	require.NoError(t, err)

	assert.Equal(t, "label_point", q.Field)
	assert.False(t, q.Transform)
	assert.Equal(t, "osm_id", q.PK)
	assert.Equal(t, "labels", q.Layer)
	assert.Equal(t, []string{"name"}, q.Attributes)
	require.NotNil(t, q.MinRenderZoom)
	assert.Equal(t, 8, *q.MinRenderZoom)
	assert.True(t, q.Centroid)
	assert.Equal(t, mvt.EnvelopeExact, q.Envelope)
}

func TestFromModel_DerivedAttributesExcludeOverriddenPK(t *testing.T) {
	schema := highwaySchema(3857)
	schema.Columns = append(schema.Columns, mvt.Column{Name: "osm_id", Kind: mvt.ColumnPlain})

	q, err := mvt.FromModel(schema, mvt.WithPK("osm_id"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "highway"}, q.Attributes)
}

func TestFromModel_NoAttributes(t *testing.T) {
	q, err := mvt.FromModel(highwaySchema(3857), mvt.WithAttributes())
	require.NoError(t, err)
	assert.Empty(t, q.Attributes)

	stmt, err := q.AsMVT(portMoresby)
	require.NoError(t, err)
	assert.NotContains(t, stmt.SQL, "jsonb_build_object")
}

func TestFromModel_ConfigErrors(t *testing.T) {
	t.Run("no geometry", func(t *testing.T) {
		_, err := mvt.FromModel(mvt.Schema{
			Table:   "plain",
			Columns: []mvt.Column{{Name: "id", Kind: mvt.ColumnPrimaryKey}},
		})
		assert.ErrorIs(t, err, mvt.ErrNoGeometryColumn)
	})

	t.Run("field override is not geometry", func(t *testing.T) {
		_, err := mvt.FromModel(highwaySchema(3857), mvt.WithField("name"))
		assert.ErrorIs(t, err, mvt.ErrNoGeometryColumn)
	})

	t.Run("no primary key", func(t *testing.T) {
		_, err := mvt.FromModel(mvt.Schema{
			Table:   "nopk",
			Columns: []mvt.Column{{Name: "geom", Kind: mvt.ColumnGeometry, SRID: 3857}},
		})
		assert.ErrorIs(t, err, mvt.ErrNoPrimaryKey)
	})

	t.Run("unknown pk override", func(t *testing.T) {
		_, err := mvt.FromModel(highwaySchema(3857), mvt.WithPK("missing"))
		assert.ErrorIs(t, err, mvt.ErrNoPrimaryKey)
	})
}

func TestFromQueryset(t *testing.T) {
	qs := mvt.Queryset{
		SQL:    `SELECT "id", "geom"::bytea, "name" FROM "osm_highway" WHERE "highway" = $1 AND "name" <> '$2' AND "ref" = $2`,
		Args:   []any{"primary", "A1"},
		Schema: highwaySchema(3857),
	}

	q, err := mvt.FromQueryset(qs, mvt.WithLayer("roads"), mvt.WithAttributes("name"))
	require.NoError(t, err)
	assert.Empty(t, q.Table)
	require.NotNil(t, q.Source)

	stmt, err := q.AsMVT(portMoresby)
	require.NoError(t, err)

	expectedSource := `WITH "src_roads" AS (SELECT "id", "geom", "name" FROM "osm_highway" WHERE "highway" = $1 AND "name" <> '$2' AND "ref" = $2), `
	assert.True(t, len(stmt.SQL) > len(expectedSource))
	assert.Equal(t, expectedSource, stmt.SQL[:len(expectedSource)])
	assert.Contains(t, stmt.SQL, `FROM "src_roads" WHERE`)
	assert.NotContains(t, stmt.SQL, "::bytea")

	assert.Equal(t, []any{"primary", "A1", 14, 14891, 8624, 4096, 64, 0.015625}, stmt.Args)
}

func TestFromQueryset_QuestionPlaceholders(t *testing.T) {
	qs := mvt.Queryset{
		SQL:    `SELECT id, geom, name FROM osm_highway WHERE highway = ? AND name = ?`,
		Args:   []any{"primary", "Main"},
		Schema: highwaySchema(3857),
	}

	q, err := mvt.FromQueryset(qs)
	require.NoError(t, err)

	stmt, err := q.AsMVT(portMoresby)
	require.NoError(t, err)
	assert.Contains(t, stmt.SQL, `WHERE highway = $1 AND name = $2)`)
	assert.Equal(t, []any{"primary", "Main"}, stmt.Args[:2])
}

func TestFromQueryset_QuotedTextUntouched(t *testing.T) {
	t.Run("cast inside literal", func(t *testing.T) {
		q, err := mvt.FromQueryset(mvt.Queryset{
			SQL:    `SELECT id, geom::bytea FROM osm_highway WHERE name = 'x::bytea' AND highway = $1`,
			Args:   []any{"primary"},
			Schema: highwaySchema(3857),
		})
		require.NoError(t, err)

		stmt, err := q.AsMVT(portMoresby)
		require.NoError(t, err)
		assert.Contains(t, stmt.SQL, `SELECT id, geom FROM osm_highway WHERE name = 'x::bytea' AND highway = $1)`)
		assert.Equal(t, "primary", stmt.Args[0])
	})

	t.Run("question mark inside literal", func(t *testing.T) {
		q, err := mvt.FromQueryset(mvt.Queryset{
			SQL:    `SELECT id, geom FROM osm_highway WHERE name = 'what?' AND "odd?" = ? AND highway = ?`,
			Args:   []any{"x", "primary"},
			Schema: highwaySchema(3857),
		})
		require.NoError(t, err)

		stmt, err := q.AsMVT(portMoresby)
		require.NoError(t, err)
		assert.Contains(t, stmt.SQL, `WHERE name = 'what?' AND "odd?" = $1 AND highway = $2)`)
		assert.Equal(t, []any{"x", "primary"}, stmt.Args[:2])
	})

	t.Run("single placeholder after literal", func(t *testing.T) {
		q, err := mvt.FromQueryset(mvt.Queryset{
			SQL:    `SELECT id, geom FROM osm_highway WHERE name = 'what?' AND highway = ?`,
			Args:   []any{"primary"},
			Schema: highwaySchema(3857),
		})
		require.NoError(t, err)

		stmt, err := q.AsMVT(portMoresby)
		require.NoError(t, err)
		assert.Contains(t, stmt.SQL, `AND highway = $1)`)
	})
}

func TestFromQueryset_Errors(t *testing.T) {
	t.Run("placeholder without argument", func(t *testing.T) {
		_, err := mvt.FromQueryset(mvt.Queryset{
			SQL:    `SELECT id, geom FROM osm_highway WHERE highway = $2`,
			Args:   []any{"primary"},
			Schema: highwaySchema(3857),
		})
		assert.ErrorIs(t, err, mvt.ErrQuerysetArgs)
	})

	t.Run("empty sql", func(t *testing.T) {
		_, err := mvt.FromQueryset(mvt.Queryset{Schema: highwaySchema(3857)})
		assert.ErrorIs(t, err, mvt.ErrMissingSource)
	})

	t.Run("schema without geometry", func(t *testing.T) {
		_, err := mvt.FromQueryset(mvt.Queryset{
			SQL:    "SELECT 1",
			Schema: mvt.Schema{Columns: []mvt.Column{{Name: "id", Kind: mvt.ColumnPrimaryKey}}},
		})
		assert.ErrorIs(t, err, mvt.ErrNoGeometryColumn)
	})
}

func TestFromModel_CalculatedAndFilters(t *testing.T) {
	q, err := mvt.FromModel(highwaySchema(3857),
		mvt.WithAttributes("name"),
		mvt.WithCalculatedAttribute("class", sqlbuild.Raw(`regexp_replace("highway", '_link$', '')`)),
		mvt.WithFilters(sqlbuild.Raw(`"highway" IS NOT NULL`)),
	)
	require.NoError(t, err)

	stmt, err := q.AsMVT(portMoresby)
	require.NoError(t, err)
	assert.Contains(t, stmt.SQL, `jsonb_build_object('name', "name", 'class', regexp_replace("highway", '_link$', ''))`)
	assert.Contains(t, stmt.SQL, `margin => $6) AND "highway" IS NOT NULL)`)
}
