package postgres_test

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/suite"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/geofeature"
	"github.com/streetmap-tiles/internal/mvt"
	"github.com/streetmap-tiles/internal/repository/postgres/testhelpers"
)

// OSMRepositoryTestSuite covers the migrated OSM tables: upserts, schema
// introspection and GeoJSON collections
type OSMRepositoryTestSuite struct {
	suite.Suite
	testDB   *testhelpers.TestDB
	osm      repository.OSMRepository
	schemas  repository.SchemaRepository
	features repository.FeatureRepository
	ctx      context.Context
}

func (s *OSMRepositoryTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())
	testhelpers.ApplyMigrations(s.T(), s.testDB)

	s.osm = testhelpers.NewOSMRepositoryForTest(s.testDB.DB, s.testDB.Logger)
	s.schemas = testhelpers.NewSchemaRepositoryForTest(s.testDB.DB, s.testDB.Logger)
	s.features = testhelpers.NewFeatureRepositoryForTest(s.testDB.DB, s.testDB.Logger)
}

func (s *OSMRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.NoError(s.testDB.Cleanup(s.ctx))
}

func (s *OSMRepositoryTestSuite) count(table string) int {
	var n int
	s.Require().NoError(s.testDB.DB.GetContext(s.ctx, &n, "SELECT count(*) FROM "+table))
	return n
}

// square is a closed ring around Port Moresby in EPSG:3857
func square() orb.LineString {
	return orb.LineString{
		{16385000, -1058000},
		{16386000, -1058000},
		{16386000, -1057000},
		{16385000, -1057000},
		{16385000, -1058000},
	}
}

func (s *OSMRepositoryTestSuite) TestUpsertHighways_ReplacesByID() {
	line := orb.LineString{{16385000, -1058000}, {16386000, -1057000}}

	n, err := s.osm.UpsertHighways(s.ctx, []domain.Highway{
		{ID: 10, Name: "Waigani Drive", Highway: "primary", Geometry: line},
		{ID: 11, Highway: "service", Geometry: line},
	})
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.osm.UpsertHighways(s.ctx, []domain.Highway{
		{ID: 10, Name: "Waigani Drive", Highway: "trunk", Geometry: line},
	})
	s.Require().NoError(err)

	s.Equal(2, s.count("osm_highway"))

	var highway string
	s.Require().NoError(s.testDB.DB.GetContext(s.ctx, &highway, "SELECT highway FROM osm_highway WHERE id = 10"))
	s.Equal("trunk", highway)

	var name *string
	s.Require().NoError(s.testDB.DB.GetContext(s.ctx, &name, "SELECT name FROM osm_highway WHERE id = 11"))
	s.Nil(name)
}

func (s *OSMRepositoryTestSuite) TestUpsertIslands_ClosedRingsBecomeAreas() {
	open := orb.LineString{{16385000, -1058000}, {16386000, -1057000}}

	lines, areas, err := s.osm.UpsertIslands(s.ctx, []domain.Island{
		{ID: 1, Name: "Motupore", Geometry: square()},
		{ID: 2, Name: "Coastline", Geometry: open},
	})
	s.Require().NoError(err)
	s.Equal(2, lines)
	s.Equal(1, areas)
	s.Equal(2, s.count("osm_islands"))
	s.Equal(1, s.count("osm_islands_areas"))
}

func (s *OSMRepositoryTestSuite) TestUpsertAdminBoundaries_Empty() {
	n, err := s.osm.UpsertAdminBoundaries(s.ctx, nil)
	s.NoError(err)
	s.Zero(n)
}

func (s *OSMRepositoryTestSuite) TestDescribeTable() {
	schema, err := s.schemas.DescribeTable(s.ctx, "osm_highway")
	s.Require().NoError(err)

	s.Equal("osm_highway", schema.Table)
	s.Equal("public", schema.Namespace)
	s.Equal([]mvt.Column{
		{Name: "id", Kind: mvt.ColumnPrimaryKey},
		{Name: "geom", Kind: mvt.ColumnGeometry, SRID: 3857},
		{Name: "name", Kind: mvt.ColumnPlain},
		{Name: "highway", Kind: mvt.ColumnPlain},
	}, schema.Columns)

	q, err := mvt.FromModel(schema)
	s.Require().NoError(err)
	s.False(q.Transform)
	s.Equal([]string{"name", "highway"}, q.Attributes)
}

func (s *OSMRepositoryTestSuite) TestDescribeTable_Missing() {
	_, err := s.schemas.DescribeTable(s.ctx, "no_such_table")
	s.Error(err)
}

func (s *OSMRepositoryTestSuite) TestGetFeatureCollection() {
	_, _, err := s.osm.UpsertIslands(s.ctx, []domain.Island{
		{ID: 1, Name: "Motupore", Geometry: square()},
	})
	s.Require().NoError(err)

	q := geofeature.CollectionQuery{
		Table:      "osm_islands_areas",
		Properties: []string{"name"},
		Centroid:   true,
	}

	stmt, err := q.AsFeatureCollection(nil)
	s.Require().NoError(err)

	fc, err := s.features.GetFeatureCollection(s.ctx, stmt)
	s.Require().NoError(err)
	s.Require().Len(fc.Features, 1)
	s.Equal("Motupore", fc.Features[0].Properties["name"])

	point, ok := fc.Features[0].Geometry.(orb.Point)
	s.Require().True(ok)
	s.InDelta(147.19, point.Lon(), 0.05)
	s.InDelta(-9.46, point.Lat(), 0.05)

	far := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	stmt, err = q.AsFeatureCollection(&far)
	s.Require().NoError(err)

	fc, err = s.features.GetFeatureCollection(s.ctx, stmt)
	s.Require().NoError(err)
	s.Empty(fc.Features)
}

func (s *OSMRepositoryTestSuite) TestUpsertFacebookRoads_ReplacesByWayFBID() {
	line := orb.MultiLineString{{{16385000, -1058000}, {16386000, -1057000}}}

	n, err := s.osm.UpsertFacebookRoads(s.ctx, []domain.FacebookRoad{
		{ID: 900001, Highway: "residential", Geometry: line},
		{ID: 900002, Geometry: line},
	})
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.osm.UpsertFacebookRoads(s.ctx, []domain.FacebookRoad{
		{ID: 900001, Highway: "track", Geometry: line},
	})
	s.Require().NoError(err)

	s.Equal(2, s.count("facebookai_road"))

	var highway string
	s.Require().NoError(s.testDB.DB.GetContext(s.ctx, &highway, "SELECT highway FROM facebookai_road WHERE id = 900001"))
	s.Equal("track", highway)

	var srid int
	s.Require().NoError(s.testDB.DB.GetContext(s.ctx, &srid, "SELECT ST_SRID(geom) FROM facebookai_road WHERE id = 900002"))
	s.Equal(3857, srid)
}

func TestOSMRepositorySuite(t *testing.T) {
	suite.Run(t, new(OSMRepositoryTestSuite))
}
