// Package geofeature builds PostGIS statements that aggregate table rows
// into a single GeoJSON FeatureCollection.
package geofeature

import (
	"errors"

	"github.com/paulmach/orb"

	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

const (
	DefaultPrecision = 6
	defaultSRID      = 3857
	wgs84SRID        = 4326
)

var ErrMissingTable = errors.New("geofeature: table is required")

// CollectionQuery describes one GeoJSON collection. Geometries are always
// emitted in WGS84.
type CollectionQuery struct {
	Namespace  string
	Table      string
	Field      string
	PK         string
	Properties []string
	Filters    []sqlbuild.Node

	// SRID of the stored geometry, 3857 when zero.
	SRID int
	// Centroid emits the centroid of each geometry, e.g. for labels.
	Centroid  bool
	Precision int
}

func (c CollectionQuery) srid() int {
	if c.SRID == 0 {
		return defaultSRID
	}
	return c.SRID
}

func (c CollectionQuery) geometry() sqlbuild.Node {
	var geom sqlbuild.Node = sqlbuild.Ident(fieldOrDefault(c.Field))
	if c.Centroid {
		geom = sqlbuild.Format("ST_Centroid({geom})", sqlbuild.Args{"geom": geom})
	}
	return geom
}

func (c CollectionQuery) properties() sqlbuild.Node {
	if len(c.Properties) == 0 {
		return sqlbuild.Raw("'{}'::jsonb")
	}
	pairs := make([]sqlbuild.Node, 0, 2*len(c.Properties))
	for _, name := range c.Properties {
		pairs = append(pairs, sqlbuild.Lit(name), sqlbuild.Ident(name))
	}
	return sqlbuild.Format("jsonb_build_object({pairs})", sqlbuild.Args{"pairs": sqlbuild.Join(", ", pairs...)})
}

// AsFeatureCollection renders a statement returning one jsonb value. When
// bbox is set, only features intersecting it (lon/lat) are included.
func (c CollectionQuery) AsFeatureCollection(bbox *orb.Bound) (sqlbuild.Statement, error) {
	if c.Table == "" {
		return sqlbuild.Statement{}, ErrMissingTable
	}

	pk := c.PK
	if pk == "" {
		pk = "id"
	}
	precision := c.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}

	var from sqlbuild.Node = sqlbuild.Ident(c.Table)
	if c.Namespace != "" {
		from = sqlbuild.Ident(c.Namespace, c.Table)
	}

	feature := sqlbuild.Format(`jsonb_build_object('type', 'Feature', 'id', {pk}, 'geometry', ST_AsGeoJSON(ST_Transform({geom}, {wgs84}), {precision})::jsonb, 'properties', {props})`, sqlbuild.Args{
		"pk":        sqlbuild.Ident(pk),
		"geom":      c.geometry(),
		"wgs84":     sqlbuild.Lit(wgs84SRID),
		"precision": sqlbuild.Lit(precision),
		"props":     c.properties(),
	})

	conditions := append([]sqlbuild.Node{}, c.Filters...)
	params := map[string]any{}
	if bbox != nil {
		conditions = append(conditions, sqlbuild.Format(
			"{field} && ST_Transform(ST_MakeEnvelope({min_lon}, {min_lat}, {max_lon}, {max_lat}, {wgs84}), {srid})",
			sqlbuild.Args{
				"field":   sqlbuild.Ident(fieldOrDefault(c.Field)),
				"min_lon": sqlbuild.Param("min_lon"),
				"min_lat": sqlbuild.Param("min_lat"),
				"max_lon": sqlbuild.Param("max_lon"),
				"max_lat": sqlbuild.Param("max_lat"),
				"wgs84":   sqlbuild.Lit(wgs84SRID),
				"srid":    sqlbuild.Lit(c.srid()),
			}))
		params["min_lon"] = bbox.Min.X()
		params["min_lat"] = bbox.Min.Y()
		params["max_lon"] = bbox.Max.X()
		params["max_lat"] = bbox.Max.Y()
	}

	where := sqlbuild.Node(sqlbuild.Raw(""))
	if len(conditions) > 0 {
		where = sqlbuild.Format(" WHERE {conditions}", sqlbuild.Args{
			"conditions": sqlbuild.Join(" AND ", conditions...),
		})
	}

	node := sqlbuild.Format(`SELECT jsonb_build_object('type', 'FeatureCollection', 'features', COALESCE(jsonb_agg({feature}), '[]'::jsonb)) FROM {from}{where}`, sqlbuild.Args{
		"feature": feature,
		"from":    from,
		"where":   where,
	})
	return sqlbuild.Render(node, params)
}

func fieldOrDefault(field string) string {
	if field == "" {
		return "geom"
	}
	return field
}
