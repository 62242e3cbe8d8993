package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/pkg/utils"
	"github.com/streetmap-tiles/internal/pkg/validator"
	"github.com/streetmap-tiles/internal/usecase"
	"github.com/streetmap-tiles/internal/usecase/dto"
)

type FeatureService interface {
	GetCollection(ctx context.Context, name string, bbox *orb.Bound) (*geojson.FeatureCollection, error)
}

// FeatureHandler - GeoJSON коллекции
type FeatureHandler struct {
	featureUC FeatureService
	logger    *zap.Logger
}

func NewFeatureHandler(featureUC FeatureService, logger *zap.Logger) *FeatureHandler {
	return &FeatureHandler{
		featureUC: featureUC,
		logger:    logger,
	}
}

// GetCollection godoc
// @Summary Get GeoJSON feature collection
// @Description Возвращает FeatureCollection (EPSG:4326), опционально ограниченную bbox
// @Tags Features
// @Produce json
// @Param collection path string true "Коллекция" example(islands)
// @Param bbox query string false "minLon,minLat,maxLon,maxLat"
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/features/{collection} [get]
func (h *FeatureHandler) GetCollection(c *fiber.Ctx) error {
	params := dto.FeatureCollectionParams{
		Collection: c.Params("collection"),
		BBox:       c.Query("bbox"),
	}
	if err := validator.Validate(&params); err != nil {
		return utils.SendError(c, validator.ToAppError(err))
	}

	bbox, err := usecase.ParseBBox(params.BBox)
	if err != nil {
		return utils.SendError(c, err)
	}

	fc, err := h.featureUC.GetCollection(c.UserContext(), params.Collection, bbox)
	if err != nil {
		return utils.SendError(c, err)
	}

	h.logger.Debug("Collection served",
		zap.String("collection", params.Collection),
		zap.Int("features", len(fc.Features)))

	c.Set(fiber.HeaderContentType, "application/geo+json")
	body, err := fc.MarshalJSON()
	if err != nil {
		return utils.SendError(c, err)
	}
	return c.Send(body)
}
