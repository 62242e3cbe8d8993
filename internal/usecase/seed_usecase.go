package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/mvt"
	apperrors "github.com/streetmap-tiles/internal/pkg/errors"
	"github.com/streetmap-tiles/internal/usecase/dto"
)

type SeedUseCase struct {
	catalog    LayerCatalog
	streamRepo repository.StreamRepository
	logger     *zap.Logger
	maxTiles   int
}

func NewSeedUseCase(
	catalog LayerCatalog,
	streamRepo repository.StreamRepository,
	logger *zap.Logger,
	maxTiles int,
) *SeedUseCase {
	return &SeedUseCase{
		catalog:    catalog,
		streamRepo: streamRepo,
		logger:     logger,
		maxTiles:   maxTiles,
	}
}

// CountTiles - сколько тайлов покрывает задание на всех зумах
func CountTiles(req *domain.SeedRequest) int {
	bound := req.Bound()
	total := 0
	for z := req.MinZoom; z <= req.MaxZoom; z++ {
		total += mvt.CoverCount(bound, z)
	}
	return total
}

// SeedTiles ставит задание прогрева кеша в Redis Stream
func (uc *SeedUseCase) SeedTiles(ctx context.Context, setName string, req dto.SeedTileRequest) (*dto.SeedTileResponse, error) {
	if _, ok := uc.catalog.LayerSet(setName); !ok {
		return nil, apperrors.ErrLayerSetNotFound.WithDetails(map[string]interface{}{"set": setName})
	}

	seed := &domain.SeedRequest{
		JobID:    uuid.New(),
		LayerSet: setName,
		MinZoom:  req.MinZoom,
		MaxZoom:  req.MaxZoom,
		Bounds:   [4]float64{req.BBox.MinLon, req.BBox.MinLat, req.BBox.MaxLon, req.BBox.MaxLat},
	}
	if req.MaxZoom > mvt.MaxZoom {
		return nil, apperrors.ErrInvalidZoom.WithDetails(map[string]interface{}{"max": mvt.MaxZoom})
	}
	if err := seed.Validate(); err != nil {
		return nil, apperrors.ErrInvalidRequest.WithMessage(err.Error())
	}

	tiles := CountTiles(seed)
	if tiles > uc.maxTiles {
		return nil, apperrors.ErrTooManyTiles.WithDetails(map[string]interface{}{
			"tiles": tiles,
			"limit": uc.maxTiles,
		})
	}

	msgID, err := uc.streamRepo.PublishToStream(ctx, domain.StreamTilesSeed, seed)
	if err != nil {
		uc.logger.Error("Failed to publish seed job",
			zap.String("job_id", seed.JobID.String()),
			zap.Error(err))
		return nil, apperrors.ErrQueueError
	}

	uc.logger.Info("Seed job queued",
		zap.String("job_id", seed.JobID.String()),
		zap.String("set", setName),
		zap.Int("min_zoom", seed.MinZoom),
		zap.Int("max_zoom", seed.MaxZoom),
		zap.Int("tiles", tiles))

	return &dto.SeedTileResponse{
		JobID:     seed.JobID,
		LayerSet:  setName,
		Tiles:     tiles,
		MessageID: msgID,
	}, nil
}
