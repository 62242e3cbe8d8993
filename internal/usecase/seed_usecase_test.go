package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
	apperrors "github.com/streetmap-tiles/internal/pkg/errors"
	"github.com/streetmap-tiles/internal/usecase"
	"github.com/streetmap-tiles/internal/usecase/dto"
)

func portMoresbyRequest(minZoom, maxZoom int) dto.SeedTileRequest {
	return dto.SeedTileRequest{
		MinZoom: minZoom,
		MaxZoom: maxZoom,
		BBox:    domain.BoundingBox{MinLon: 147.20, MinLat: -9.46, MaxLon: 147.21, MaxLat: -9.455},
	}
}

func TestCountTiles(t *testing.T) {
	req := &domain.SeedRequest{MinZoom: 0, MaxZoom: 2, Bounds: [4]float64{-180, -85, 180, 85}}
	// 1 + 4 + 16
	assert.Equal(t, 21, usecase.CountTiles(req))
}

func TestSeedUseCase_SeedTiles(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes job", func(t *testing.T) {
		stream := &MockStreamRepository{}
		uc := usecase.NewSeedUseCase(testCatalog(), stream, zap.NewNop(), 1000)

		stream.On("PublishToStream", ctx, domain.StreamTilesSeed, mock.MatchedBy(func(r *domain.SeedRequest) bool {
			return r.LayerSet == "roads" && r.MinZoom == 10 && r.MaxZoom == 14 && r.Bounds[0] == 147.20
		})).Return("1700000000000-0", nil)

		resp, err := uc.SeedTiles(ctx, "roads", portMoresbyRequest(10, 14))

		require.NoError(t, err)
		assert.Equal(t, "roads", resp.LayerSet)
		assert.Equal(t, "1700000000000-0", resp.MessageID)
		assert.NotEmpty(t, resp.JobID)
		assert.GreaterOrEqual(t, resp.Tiles, 5)
		stream.AssertExpectations(t)
	})

	t.Run("unknown set", func(t *testing.T) {
		uc := usecase.NewSeedUseCase(testCatalog(), &MockStreamRepository{}, zap.NewNop(), 1000)

		_, err := uc.SeedTiles(ctx, "rivers", portMoresbyRequest(1, 2))
		assert.ErrorIs(t, err, apperrors.ErrLayerSetNotFound)
	})

	t.Run("inverted bounds", func(t *testing.T) {
		uc := usecase.NewSeedUseCase(testCatalog(), &MockStreamRepository{}, zap.NewNop(), 1000)
		req := portMoresbyRequest(1, 2)
		req.BBox.MinLon, req.BBox.MaxLon = req.BBox.MaxLon, req.BBox.MinLon

		_, err := uc.SeedTiles(ctx, "roads", req)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("too many tiles", func(t *testing.T) {
		stream := &MockStreamRepository{}
		uc := usecase.NewSeedUseCase(testCatalog(), stream, zap.NewNop(), 3)

		_, err := uc.SeedTiles(ctx, "roads", portMoresbyRequest(14, 18))

		assert.ErrorIs(t, err, apperrors.ErrTooManyTiles)
		stream.AssertNotCalled(t, "PublishToStream", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("queue unavailable", func(t *testing.T) {
		stream := &MockStreamRepository{}
		uc := usecase.NewSeedUseCase(testCatalog(), stream, zap.NewNop(), 1000)
		stream.On("PublishToStream", ctx, domain.StreamTilesSeed, mock.Anything).Return("", errors.New("redis down"))

		_, err := uc.SeedTiles(ctx, "roads", portMoresbyRequest(1, 2))
		assert.ErrorIs(t, err, apperrors.ErrQueueError)
	})
}
