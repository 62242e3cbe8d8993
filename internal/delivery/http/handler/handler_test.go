package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/delivery/http/handler"
	apperrors "github.com/streetmap-tiles/internal/pkg/errors"
	"github.com/streetmap-tiles/internal/usecase/dto"
)

type MockTileService struct {
	mock.Mock
}

func (m *MockTileService) GetTile(ctx context.Context, set string, z, x, y int) ([]byte, error) {
	args := m.Called(ctx, set, z, x, y)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTileService) InspectTile(ctx context.Context, set string, z, x, y int) (*dto.InspectResponse, error) {
	args := m.Called(ctx, set, z, x, y)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.InspectResponse), args.Error(1)
}

func (m *MockTileService) ListLayerSets() *dto.CatalogResponse {
	args := m.Called()
	return args.Get(0).(*dto.CatalogResponse)
}

type MockSeedService struct {
	mock.Mock
}

func (m *MockSeedService) SeedTiles(ctx context.Context, set string, req dto.SeedTileRequest) (*dto.SeedTileResponse, error) {
	args := m.Called(ctx, set, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SeedTileResponse), args.Error(1)
}

type MockFeatureService struct {
	mock.Mock
}

func (m *MockFeatureService) GetCollection(ctx context.Context, name string, bbox *orb.Bound) (*geojson.FeatureCollection, error) {
	args := m.Called(ctx, name, bbox)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geojson.FeatureCollection), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Health(context.Context) error { return p.err }

func newApp(tiles *MockTileService, seeds *MockSeedService, features *MockFeatureService) *fiber.App {
	app := fiber.New()
	th := handler.NewTileHandler(tiles, seeds, zap.NewNop(), "public, max-age=900")
	fh := handler.NewFeatureHandler(features, zap.NewNop())

	app.Get("/api/v1/tiles", th.ListLayerSets)
	app.Get("/api/v1/tiles/:set/:z/:x/:y.pbf", th.GetTile)
	app.Get("/api/v1/tiles/:set/:z/:x/:y/layers", th.InspectTile)
	app.Post("/api/v1/tiles/:set/seed", th.SeedTiles)
	app.Get("/api/v1/features/:collection", fh.GetCollection)
	return app
}

func errorCode(t *testing.T, body io.Reader) string {
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error.Code
}

func TestTileHandler_GetTile(t *testing.T) {
	tiles := &MockTileService{}
	app := newApp(tiles, &MockSeedService{}, &MockFeatureService{})

	tiles.On("GetTile", mock.Anything, "highways", 14, 14891, 8624).Return([]byte{0x1a, 0x02}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/tiles/highways/14/14891/8624.pbf", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-protobuf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=900", resp.Header.Get("Cache-Control"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, []byte{0x1a, 0x02}, body)
}

func TestTileHandler_GetTile_EmptyIsOK(t *testing.T) {
	tiles := &MockTileService{}
	app := newApp(tiles, &MockSeedService{}, &MockFeatureService{})

	tiles.On("GetTile", mock.Anything, "highways", 0, 0, 0).Return([]byte{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/tiles/highways/0/0/0.pbf", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

func TestTileHandler_GetTile_Errors(t *testing.T) {
	tiles := &MockTileService{}
	app := newApp(tiles, &MockSeedService{}, &MockFeatureService{})

	tiles.On("GetTile", mock.Anything, "rivers", 1, 0, 0).Return(nil, apperrors.ErrLayerSetNotFound)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown set", "/api/v1/tiles/rivers/1/0/0.pbf", 404, "LAYER_SET_NOT_FOUND"},
		{"non numeric zoom", "/api/v1/tiles/highways/a/0/0.pbf", 400, "INVALID_TILE_COORDINATES"},
		{"negative x", "/api/v1/tiles/highways/1/-1/0.pbf", 400, "INVALID_TILE_COORDINATES"},
		{"bad set name", "/api/v1/tiles/High;ways/1/0/0.pbf", 400, "INVALID_TILE_COORDINATES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp.Body))
		})
	}
}

func TestTileHandler_InspectTile(t *testing.T) {
	tiles := &MockTileService{}
	app := newApp(tiles, &MockSeedService{}, &MockFeatureService{})

	tiles.On("InspectTile", mock.Anything, "islands", 8, 236, 135).Return(&dto.InspectResponse{
		Set:    "islands",
		Tile:   "8/236/135",
		Bytes:  42,
		Layers: []dto.LayerSummary{{Name: "islands", Features: 3, Extent: 4096}},
	}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/tiles/islands/8/236/135/layers", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.InspectResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Data.Layers[0].Features)
}

func TestTileHandler_ListLayerSets(t *testing.T) {
	tiles := &MockTileService{}
	app := newApp(tiles, &MockSeedService{}, &MockFeatureService{})

	tiles.On("ListLayerSets").Return(&dto.CatalogResponse{LayerSets: []dto.LayerSetInfo{{Name: "boundary"}}})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/tiles", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.CatalogResponse `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "boundary", body.Data.LayerSets[0].Name)
	assert.Equal(t, 1, body.Meta.Total)
}

func TestTileHandler_SeedTiles(t *testing.T) {
	seeds := &MockSeedService{}
	app := newApp(&MockTileService{}, seeds, &MockFeatureService{})

	jobID := uuid.New()
	seeds.On("SeedTiles", mock.Anything, "roads", mock.MatchedBy(func(r dto.SeedTileRequest) bool {
		return r.MinZoom == 10 && r.MaxZoom == 12 && r.BBox.MinLon == 147.1
	})).Return(&dto.SeedTileResponse{JobID: jobID, LayerSet: "roads", Tiles: 12}, nil)

	body := `{"min_zoom":10,"max_zoom":12,"bbox":{"min_lon":147.1,"min_lat":-9.6,"max_lon":147.3,"max_lat":-9.3}}`
	req := httptest.NewRequest("POST", "/api/v1/tiles/roads/seed", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var out struct {
		Data dto.SeedTileResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, jobID, out.Data.JobID)
}

func TestTileHandler_SeedTiles_InvalidZoomRange(t *testing.T) {
	seeds := &MockSeedService{}
	app := newApp(&MockTileService{}, seeds, &MockFeatureService{})

	body := `{"min_zoom":12,"max_zoom":10,"bbox":{"min_lon":147.1,"min_lat":-9.6,"max_lon":147.3,"max_lat":-9.3}}`
	req := httptest.NewRequest("POST", "/api/v1/tiles/roads/seed", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, resp.Body))
	seeds.AssertNotCalled(t, "SeedTiles", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeatureHandler_GetCollection(t *testing.T) {
	features := &MockFeatureService{}
	app := newApp(&MockTileService{}, &MockSeedService{}, features)

	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{147.19, -9.46})
	f.Properties["name"] = "Motupore"
	fc.Append(f)

	bbox := &orb.Bound{Min: orb.Point{147, -10}, Max: orb.Point{148, -9}}
	features.On("GetCollection", mock.Anything, "islands", bbox).Return(fc, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/features/islands?bbox=147,-10,148,-9", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	raw, _ := io.ReadAll(resp.Body)
	got, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	assert.Equal(t, "Motupore", got.Features[0].Properties["name"])
}

func TestFeatureHandler_GetCollection_Errors(t *testing.T) {
	features := &MockFeatureService{}
	app := newApp(&MockTileService{}, &MockSeedService{}, features)

	features.On("GetCollection", mock.Anything, "lakes", (*orb.Bound)(nil)).Return(nil, apperrors.ErrCollectionNotFound)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/features/lakes", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/features/islands?bbox=1,2,3", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BOUNDS", errorCode(t, resp.Body))
}

func TestHealthHandler(t *testing.T) {
	app := fiber.New()

	healthy := handler.NewHealthHandler(map[string]handler.Pinger{"postgres": stubPinger{}}, zap.NewNop())
	app.Get("/ok", healthy.Health)

	broken := handler.NewHealthHandler(map[string]handler.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	}, zap.NewNop())
	app.Get("/broken", broken.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/broken", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
