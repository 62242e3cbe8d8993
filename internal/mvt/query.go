// Package mvt builds PostGIS statements that render one Mapbox Vector Tile
// layer per query.
package mvt

import (
	"fmt"
	"maps"

	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

const (
	DefaultField = "geom"
	DefaultPK    = "id"
	DefaultLayer = "default"
)

// EnvelopeMode selects the envelope used by the WHERE predicate.
type EnvelopeMode int

const (
	// EnvelopeMargin selects features touching the buffered tile, so lines
	// and polygons clipped at the edge are still rendered into the buffer.
	EnvelopeMargin EnvelopeMode = iota
	// EnvelopeExact selects only features touching the tile itself.
	EnvelopeExact
)

func (m EnvelopeMode) String() string {
	if m == EnvelopeExact {
		return "exact"
	}
	return "margin"
}

// ParseEnvelopeMode accepts "margin" and "exact".
func ParseEnvelopeMode(s string) (EnvelopeMode, error) {
	switch s {
	case "", "margin":
		return EnvelopeMargin, nil
	case "exact":
		return EnvelopeExact, nil
	default:
		return EnvelopeMargin, fmt.Errorf("mvt: unknown envelope mode %q", s)
	}
}

// CalculatedAttribute is a feature property computed by a SQL expression.
type CalculatedAttribute struct {
	Name string
	Expr sqlbuild.Node
}

// Query describes one vector tile layer. The zero value of every optional
// field selects its default; AsMVT never mutates the query.
type Query struct {
	// Namespace optionally qualifies Table.
	Namespace string
	Table     string

	// Source is a sub-select used instead of Table; SourceParams holds the
	// values of the named params it references.
	Source       sqlbuild.Node
	SourceParams map[string]any

	Attributes           []string
	CalculatedAttributes []CalculatedAttribute
	Filters              []sqlbuild.Node

	Field string
	PK    string
	Layer string

	Transform bool
	Centroid  bool

	MinRenderZoom *int
	MaxRenderZoom *int

	Envelope EnvelopeMode
}

func (q Query) field() string {
	if q.Field == "" {
		return DefaultField
	}
	return q.Field
}

func (q Query) pk() string {
	if q.PK == "" {
		return DefaultPK
	}
	return q.PK
}

// LayerName returns the layer name written into the tile.
func (q Query) LayerName() string {
	if q.Layer == "" {
		return DefaultLayer
	}
	return q.Layer
}

// Visible reports whether the layer renders at zoom. Both bounds are
// inclusive.
func (q Query) Visible(zoom int) bool {
	if q.MinRenderZoom != nil && zoom < *q.MinRenderZoom {
		return false
	}
	if q.MaxRenderZoom != nil && zoom > *q.MaxRenderZoom {
		return false
	}
	return true
}

// Validate checks that exactly one source is configured.
func (q Query) Validate() error {
	switch {
	case q.Table != "" && q.Source != nil:
		return configError(q.LayerName(), ErrConflictingSource)
	case q.Table == "" && q.Source == nil:
		return configError(q.LayerName(), ErrMissingSource)
	}
	return nil
}

// GeometryExpression is the geometry column, reprojected to Web Mercator
// when Transform is set and reduced to its centroid when Centroid is set.
func (q Query) GeometryExpression() sqlbuild.Node {
	var geom sqlbuild.Node = sqlbuild.Ident(q.field())
	if q.Transform {
		geom = sqlbuild.Format("ST_Transform({geom}, 3857)", sqlbuild.Args{"geom": geom})
	}
	if q.Centroid {
		geom = sqlbuild.Format("ST_Centroid({geom})", sqlbuild.Args{"geom": geom})
	}
	return geom
}

// Properties is the jsonb object of plain then calculated attributes, or
// nil when the layer carries no attributes.
func (q Query) Properties() sqlbuild.Node {
	if len(q.Attributes) == 0 && len(q.CalculatedAttributes) == 0 {
		return nil
	}

	pairs := make([]sqlbuild.Node, 0, 2*(len(q.Attributes)+len(q.CalculatedAttributes)))
	for _, name := range q.Attributes {
		pairs = append(pairs, sqlbuild.Lit(name), sqlbuild.Ident(name))
	}
	for _, attr := range q.CalculatedAttributes {
		pairs = append(pairs, sqlbuild.Lit(attr.Name), attr.Expr)
	}
	return sqlbuild.Format("jsonb_build_object({pairs})", sqlbuild.Args{
		"pairs": sqlbuild.Join(", ", pairs...),
	})
}

func (q Query) predicateEnvelope() sqlbuild.Node {
	if q.Envelope == EnvelopeExact {
		return Tile{}.Envelope()
	}
	return Tile{}.EnvelopeMargin()
}

// Compose assembles the statement tree. Tile values are bound later by
// AsMVT through the names in Tile.Params.
func (q Query) Compose() (sqlbuild.Node, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	layer := q.LayerName()
	geom := q.GeometryExpression()
	mvtAlias := sqlbuild.Ident("mvt_" + layer)

	var ctes []sqlbuild.Node
	var from sqlbuild.Node
	if q.Source != nil {
		srcAlias := sqlbuild.Ident("src_" + layer)
		ctes = append(ctes, sqlbuild.Format("{alias} AS ({source})", sqlbuild.Args{
			"alias":  srcAlias,
			"source": q.Source,
		}))
		from = srcAlias
	} else if q.Namespace != "" {
		from = sqlbuild.Ident(q.Namespace, q.Table)
	} else {
		from = sqlbuild.Ident(q.Table)
	}

	columns := []sqlbuild.Node{
		sqlbuild.Format("ST_AsMVTGeom({geom}, {envelope}, extent => {extent}, buffer => {buffer}) AS {geomAlias}", sqlbuild.Args{
			"geom":      geom,
			"envelope":  Tile{}.Envelope(),
			"extent":    sqlbuild.Param(ParamExtent),
			"buffer":    sqlbuild.Param(ParamBuffer),
			"geomAlias": sqlbuild.Ident(DefaultField),
		}),
		sqlbuild.Ident(q.pk()),
	}
	if props := q.Properties(); props != nil {
		columns = append(columns, sqlbuild.Format("{props} AS {alias}", sqlbuild.Args{
			"props": props,
			"alias": sqlbuild.Ident("properties"),
		}))
	}

	conditions := make([]sqlbuild.Node, 0, 1+len(q.Filters))
	conditions = append(conditions, sqlbuild.Format("{geom} && {envelope}", sqlbuild.Args{
		"geom":     geom,
		"envelope": q.predicateEnvelope(),
	}))
	conditions = append(conditions, q.Filters...)

	ctes = append(ctes, sqlbuild.Format("{alias} AS (SELECT {columns} FROM {from} WHERE {where})", sqlbuild.Args{
		"alias":   mvtAlias,
		"columns": sqlbuild.Join(", ", columns...),
		"from":    from,
		"where":   sqlbuild.Join(" AND ", conditions...),
	}))

	return sqlbuild.Format("WITH {ctes} SELECT ST_AsMVT({alias}.*, {layer}, {extent}, {geomName}, {pk}) FROM {alias}", sqlbuild.Args{
		"ctes":     sqlbuild.Join(", ", ctes...),
		"alias":    mvtAlias,
		"layer":    sqlbuild.Lit(layer),
		"extent":   sqlbuild.Param(ParamExtent),
		"geomName": sqlbuild.Lit(DefaultField),
		"pk":       sqlbuild.Lit(q.pk()),
	}), nil
}

// AsMVT renders the statement for tile. A tile outside the render range
// yields ErrZoomOutOfRange and no statement.
func (q Query) AsMVT(t Tile) (sqlbuild.Statement, error) {
	if !q.Visible(t.Zoom) {
		return sqlbuild.Statement{}, ErrZoomOutOfRange
	}

	node, err := q.Compose()
	if err != nil {
		return sqlbuild.Statement{}, err
	}

	params := t.Params()
	maps.Copy(params, q.SourceParams)

	stmt, err := sqlbuild.Render(node, params)
	if err != nil {
		return sqlbuild.Statement{}, configError(q.LayerName(), err)
	}
	return stmt, nil
}
