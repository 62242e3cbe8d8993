package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/domain/repository"
	apperrors "github.com/streetmap-tiles/internal/pkg/errors"
)

type FeatureUseCase struct {
	catalog      LayerCatalog
	featureRepo  repository.FeatureRepository
	logger       *zap.Logger
	queryTimeout time.Duration
}

func NewFeatureUseCase(
	catalog LayerCatalog,
	featureRepo repository.FeatureRepository,
	logger *zap.Logger,
	queryTimeout time.Duration,
) *FeatureUseCase {
	return &FeatureUseCase{
		catalog:      catalog,
		featureRepo:  featureRepo,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

// ParseBBox разбирает "minLon,minLat,maxLon,maxLat". Пустая строка - без ограничения.
func ParseBBox(s string) (*orb.Bound, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, apperrors.ErrInvalidBounds.WithMessage("bbox must be minLon,minLat,maxLon,maxLat")
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, apperrors.ErrInvalidBounds.WithDetails(map[string]interface{}{"value": p})
		}
		v[i] = f
	}

	box := domain.BoundingBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	if err := box.Validate(); err != nil {
		return nil, apperrors.ErrInvalidBounds.WithMessage(err.Error())
	}
	b := box.Bound()
	return &b, nil
}

// GetCollection возвращает GeoJSON коллекцию, опционально ограниченную bbox
func (uc *FeatureUseCase) GetCollection(ctx context.Context, name string, bbox *orb.Bound) (*geojson.FeatureCollection, error) {
	q, ok := uc.catalog.Collection(name)
	if !ok {
		return nil, apperrors.ErrCollectionNotFound.WithDetails(map[string]interface{}{"collection": name})
	}

	stmt, err := q.AsFeatureCollection(bbox)
	if err != nil {
		uc.logger.Error("Failed to build collection query", zap.String("collection", name), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}

	if uc.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.queryTimeout)
		defer cancel()
	}

	fc, err := uc.featureRepo.GetFeatureCollection(ctx, stmt)
	if err != nil {
		uc.logger.Error("Failed to load collection", zap.String("collection", name), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	return fc, nil
}
