package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/streetmap-tiles/internal/pkg/errors"
	"github.com/streetmap-tiles/internal/pkg/utils"
	"github.com/streetmap-tiles/internal/pkg/validator"
	"github.com/streetmap-tiles/internal/usecase/dto"
)

// TileService - сценарии тайлов, которые использует обработчик
type TileService interface {
	GetTile(ctx context.Context, set string, z, x, y int) ([]byte, error)
	InspectTile(ctx context.Context, set string, z, x, y int) (*dto.InspectResponse, error)
	ListLayerSets() *dto.CatalogResponse
}

// SeedService - постановка заданий прогрева кеша
type SeedService interface {
	SeedTiles(ctx context.Context, set string, req dto.SeedTileRequest) (*dto.SeedTileResponse, error)
}

// TileHandler - обработчик для запросов векторных тайлов
type TileHandler struct {
	tileUC       TileService
	seedUC       SeedService
	logger       *zap.Logger
	cacheControl string
}

// NewTileHandler - создание нового TileHandler
func NewTileHandler(tileUC TileService, seedUC SeedService, logger *zap.Logger, cacheControl string) *TileHandler {
	return &TileHandler{
		tileUC:       tileUC,
		seedUC:       seedUC,
		logger:       logger,
		cacheControl: cacheControl,
	}
}

// tileParams разбирает /:set/:z/:x/:y(.pbf)
func tileParams(c *fiber.Ctx) (dto.TileParams, error) {
	var p dto.TileParams
	p.Set = c.Params("set")

	ints := []struct {
		name string
		dst  *int
	}{
		{"z", &p.Zoom},
		{"x", &p.X},
		{"y", &p.Y},
	}
	for _, v := range ints {
		raw := strings.TrimSuffix(c.Params(v.name), ".pbf")
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, apperrors.ErrInvalidTileCoordinates.WithDetails(map[string]interface{}{v.name: raw})
		}
		*v.dst = n
	}

	if err := validator.Validate(&p); err != nil {
		return p, apperrors.ErrInvalidTileCoordinates.WithDetails(validator.ToAppError(err).Details)
	}
	return p, nil
}

// GetTile godoc
// @Summary Get vector tile
// @Description Возвращает MVT тайл набора слоев. Слои склеиваются в порядке объявления, пустой тайл - 200 с пустым телом
// @Tags Tiles
// @Produce application/x-protobuf
// @Param set path string true "Набор слоев" example(highways)
// @Param z path int true "Зум"
// @Param x path int true "X"
// @Param y path int true "Y"
// @Success 200 {file} binary
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/tiles/{set}/{z}/{x}/{y}.pbf [get]
func (h *TileHandler) GetTile(c *fiber.Ctx) error {
	p, err := tileParams(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	tile, err := h.tileUC.GetTile(c.UserContext(), p.Set, p.Zoom, p.X, p.Y)
	if err != nil {
		return utils.SendError(c, err)
	}

	h.logger.Debug("Tile served",
		zap.String("set", p.Set),
		zap.Int("z", p.Zoom),
		zap.Int("x", p.X),
		zap.Int("y", p.Y),
		zap.Int("size", len(tile)))

	return utils.SendTile(c, tile, h.cacheControl)
}

// InspectTile godoc
// @Summary Inspect vector tile
// @Description Декодирует тайл и возвращает слои с количеством объектов (отладка)
// @Tags Tiles
// @Produce json
// @Param set path string true "Набор слоев"
// @Param z path int true "Зум"
// @Param x path int true "X"
// @Param y path int true "Y"
// @Success 200 {object} dto.InspectResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/tiles/{set}/{z}/{x}/{y}/layers [get]
func (h *TileHandler) InspectTile(c *fiber.Ctx) error {
	p, err := tileParams(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	resp, err := h.tileUC.InspectTile(c.UserContext(), p.Set, p.Zoom, p.X, p.Y)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, nil)
}

// ListLayerSets godoc
// @Summary List layer sets
// @Description Каталог наборов слоев с диапазонами зумов
// @Tags Tiles
// @Produce json
// @Success 200 {object} dto.CatalogResponse
// @Router /api/v1/tiles [get]
func (h *TileHandler) ListLayerSets(c *fiber.Ctx) error {
	resp := h.tileUC.ListLayerSets()
	return utils.SendSuccess(c, resp, &utils.Meta{Total: len(resp.LayerSets)})
}

// SeedTiles godoc
// @Summary Seed tile cache
// @Description Ставит задание прогрева кеша для bbox и диапазона зумов в очередь
// @Tags Tiles
// @Accept json
// @Produce json
// @Param set path string true "Набор слоев"
// @Param request body dto.SeedTileRequest true "Параметры прогрева"
// @Success 202 {object} dto.SeedTileResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/tiles/{set}/seed [post]
func (h *TileHandler) SeedTiles(c *fiber.Ctx) error {
	var req dto.SeedTileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage(err.Error()))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, validator.ToAppError(err))
	}

	resp, err := h.seedUC.SeedTiles(c.UserContext(), c.Params("set"), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusAccepted)
	return utils.SendSuccess(c, resp, nil)
}
