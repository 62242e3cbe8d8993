// Package layers registers the named layer sets and GeoJSON collections
// served by the API.
package layers

import (
	"context"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/geofeature"
	"github.com/streetmap-tiles/internal/mvt"
	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

// Layer set names
const (
	SetHighways   = "highways"
	SetBoundary   = "boundary"
	SetIslands    = "islands"
	SetRoads      = "roads"
	SetFacebookAI = "facebookai"
)

// Collection names
const (
	CollectionIslands    = "islands"
	CollectionBoundaries = "boundaries"
)

// Tables created by the migrations.
const (
	TableHighway        = "osm_highway"
	TableAdminBoundary  = "osm_admin_boundary"
	TableIslands        = "osm_islands"
	TableIslandsAreas   = "osm_islands_areas"
	TableFacebookAIRoad = "facebookai_road"
)

// RoadClass is a highway tag value rendered from MinZoom onwards.
type RoadClass struct {
	Highway string
	MinZoom int
}

// RoadClasses lists highway layers in paint order.
var RoadClasses = []RoadClass{
	{"trunk", 3},
	{"road", 12},
	{"secondary", 5},
	{"trunk_link", 3},
	{"tertiary", 10},
	{"secondary_link", 5},
	{"tertiary_link", 10},
	{"primary", 3},
	{"residential", 12},
	{"primary_link", 12},
	{"track", 12},
	{"service", 12},
	{"unclassified", 12},
	{"path", 12},
}

// MajorRoads are the classes of the queryset based roads layer.
var MajorRoads = []string{"motorway", "trunk", "primary", "secondary", "tertiary"}

const (
	islandLabelsMinZoom = 8
	roadsMaxZoom        = 16
)

type Options struct {
	Envelope mvt.EnvelopeMode
}

// Catalog holds the registered layer sets and collections. It is built once
// at startup and read concurrently afterwards.
type Catalog struct {
	sets        map[string]*domain.LayerSet
	collections map[string]geofeature.CollectionQuery
}

// Build describes the source tables and registers every layer set. Any
// configuration error aborts the build.
func Build(ctx context.Context, schemas repository.SchemaRepository, opts Options, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{
		sets:        make(map[string]*domain.LayerSet),
		collections: make(map[string]geofeature.CollectionQuery),
	}

	builders := []struct {
		name  string
		build func(context.Context, repository.SchemaRepository, Options) ([]mvt.Query, error)
	}{
		{SetHighways, highwayLayers},
		{SetBoundary, boundaryLayers},
		{SetIslands, islandLayers},
		{SetRoads, roadLayers},
		{SetFacebookAI, facebookAILayers},
	}

	for _, b := range builders {
		queries, err := b.build(ctx, schemas, opts)
		if err != nil {
			return nil, fmt.Errorf("layer set %s: %w", b.name, err)
		}
		for _, q := range queries {
			if err := q.Validate(); err != nil {
				return nil, fmt.Errorf("layer set %s: %w", b.name, err)
			}
		}
		c.sets[b.name] = &domain.LayerSet{Name: b.name, Layers: queries}
		logger.Debug("Layer set registered",
			zap.String("set", b.name),
			zap.Int("layers", len(queries)))
	}

	c.collections[CollectionIslands] = geofeature.CollectionQuery{
		Table:      TableIslandsAreas,
		Properties: []string{"name"},
		Centroid:   true,
	}
	c.collections[CollectionBoundaries] = geofeature.CollectionQuery{
		Table:      TableAdminBoundary,
		Properties: []string{"name"},
	}

	logger.Info("Layer catalog built",
		zap.Int("sets", len(c.sets)),
		zap.Int("collections", len(c.collections)))
	return c, nil
}

// New builds a catalog from already configured layer sets.
func New(sets []*domain.LayerSet, collections map[string]geofeature.CollectionQuery) *Catalog {
	c := &Catalog{
		sets:        make(map[string]*domain.LayerSet, len(sets)),
		collections: collections,
	}
	if c.collections == nil {
		c.collections = make(map[string]geofeature.CollectionQuery)
	}
	for _, s := range sets {
		c.sets[s.Name] = s
	}
	return c
}

func (c *Catalog) LayerSet(name string) (*domain.LayerSet, bool) {
	s, ok := c.sets[name]
	return s, ok
}

// LayerSets returns every set ordered by name.
func (c *Catalog) LayerSets() []*domain.LayerSet {
	out := make([]*domain.LayerSet, 0, len(c.sets))
	for _, s := range c.sets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Catalog) Collection(name string) (geofeature.CollectionQuery, bool) {
	q, ok := c.collections[name]
	return q, ok
}

func highwayLayers(_ context.Context, _ repository.SchemaRepository, opts Options) ([]mvt.Query, error) {
	class := sqlbuild.Format(`regexp_replace({highway}, '_link$', '')`, sqlbuild.Args{
		"highway": sqlbuild.Ident("highway"),
	})

	queries := make([]mvt.Query, 0, len(RoadClasses))
	for _, rc := range RoadClasses {
		minZoom := rc.MinZoom
		queries = append(queries, mvt.Query{
			Table:      TableHighway,
			Attributes: []string{"name", "highway"},
			CalculatedAttributes: []mvt.CalculatedAttribute{
				{Name: "class", Expr: class},
			},
			Filters: []sqlbuild.Node{
				sqlbuild.Format("{col} = {val}", sqlbuild.Args{
					"col": sqlbuild.Ident("highway"),
					"val": sqlbuild.Lit(rc.Highway),
				}),
			},
			Layer:         rc.Highway,
			MinRenderZoom: &minZoom,
			Envelope:      opts.Envelope,
		})
	}
	return queries, nil
}

func boundaryLayers(ctx context.Context, schemas repository.SchemaRepository, opts Options) ([]mvt.Query, error) {
	schema, err := schemas.DescribeTable(ctx, TableAdminBoundary)
	if err != nil {
		return nil, err
	}
	q, err := mvt.FromModel(schema,
		mvt.WithLayer("admin_boundary"),
		mvt.WithEnvelope(opts.Envelope),
	)
	if err != nil {
		return nil, err
	}
	return []mvt.Query{q}, nil
}

func islandLayers(ctx context.Context, schemas repository.SchemaRepository, opts Options) ([]mvt.Query, error) {
	schema, err := schemas.DescribeTable(ctx, TableIslandsAreas)
	if err != nil {
		return nil, err
	}

	areas, err := mvt.FromModel(schema,
		mvt.WithLayer("islands"),
		mvt.WithEnvelope(opts.Envelope),
	)
	if err != nil {
		return nil, err
	}

	labels, err := mvt.FromModel(schema,
		mvt.WithLayer("island_labels"),
		mvt.WithAttributes("name"),
		mvt.WithCentroid(),
		mvt.WithMinZoom(islandLabelsMinZoom),
		mvt.WithEnvelope(opts.Envelope),
	)
	if err != nil {
		return nil, err
	}
	return []mvt.Query{areas, labels}, nil
}

func roadLayers(ctx context.Context, schemas repository.SchemaRepository, opts Options) ([]mvt.Query, error) {
	schema, err := schemas.DescribeTable(ctx, TableHighway)
	if err != nil {
		return nil, err
	}

	q, err := mvt.FromQueryset(mvt.Queryset{
		SQL:    `SELECT "id", "geom", "name", "highway" FROM "osm_highway" WHERE "highway" = ANY($1)`,
		Args:   []any{pq.Array(MajorRoads)},
		Schema: schema,
	},
		mvt.WithLayer("roads"),
		mvt.WithAttributes("name", "highway"),
		mvt.WithMaxZoom(roadsMaxZoom),
		mvt.WithEnvelope(opts.Envelope),
	)
	if err != nil {
		return nil, err
	}
	return []mvt.Query{q}, nil
}

// facebookAILayers serves roads imported from the Facebook AI (RapiD)
// GeoPackage extracts.
func facebookAILayers(ctx context.Context, schemas repository.SchemaRepository, opts Options) ([]mvt.Query, error) {
	schema, err := schemas.DescribeTable(ctx, TableFacebookAIRoad)
	if err != nil {
		return nil, err
	}
	q, err := mvt.FromModel(schema,
		mvt.WithLayer("facebookai"),
		mvt.WithAttributes("highway"),
		mvt.WithEnvelope(opts.Envelope),
	)
	if err != nil {
		return nil, err
	}
	return []mvt.Query{q}, nil
}
