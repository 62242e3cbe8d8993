package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/geofeature"
	"github.com/streetmap-tiles/internal/layers"
	apperrors "github.com/streetmap-tiles/internal/pkg/errors"
	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
	"github.com/streetmap-tiles/internal/usecase"
)

func featureCatalog() *layers.Catalog {
	return layers.New(nil, map[string]geofeature.CollectionQuery{
		"islands": {Table: "osm_islands_areas", Properties: []string{"name"}, Centroid: true},
	})
}

func TestParseBBox(t *testing.T) {
	b, err := usecase.ParseBBox("")
	assert.NoError(t, err)
	assert.Nil(t, b)

	b, err = usecase.ParseBBox("147.0, -9.6,147.4,-9.3")
	require.NoError(t, err)
	assert.Equal(t, orb.Bound{Min: orb.Point{147.0, -9.6}, Max: orb.Point{147.4, -9.3}}, *b)

	for _, bad := range []string{"1,2,3", "a,b,c,d", "10,10,0,0", "-200,0,0,10"} {
		_, err := usecase.ParseBBox(bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidBounds, bad)
	}
}

func TestFeatureUseCase_GetCollection(t *testing.T) {
	repo := &MockFeatureRepository{}
	uc := usecase.NewFeatureUseCase(featureCatalog(), repo, zap.NewNop(), time.Second)
	ctx := context.Background()

	t.Run("success with bbox", func(t *testing.T) {
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(orb.Point{147.19, -9.46}))

		bbox := orb.Bound{Min: orb.Point{147, -10}, Max: orb.Point{148, -9}}
		repo.On("GetFeatureCollection", mock.Anything, mock.MatchedBy(func(s sqlbuild.Statement) bool {
			return len(s.Args) == 4 && s.Args[0] == 147.0
		})).Return(fc, nil).Once()

		got, err := uc.GetCollection(ctx, "islands", &bbox)

		require.NoError(t, err)
		assert.Len(t, got.Features, 1)
	})

	t.Run("unknown collection", func(t *testing.T) {
		_, err := uc.GetCollection(ctx, "lakes", nil)
		assert.ErrorIs(t, err, apperrors.ErrCollectionNotFound)
	})

	t.Run("database failure", func(t *testing.T) {
		repo.On("GetFeatureCollection", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

		_, err := uc.GetCollection(ctx, "islands", nil)
		assert.ErrorIs(t, err, apperrors.ErrDatabaseError)
	})

	repo.AssertExpectations(t)
}
