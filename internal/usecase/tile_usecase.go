package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	omvt "github.com/paulmach/orb/encoding/mvt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/mvt"
	apperrors "github.com/streetmap-tiles/internal/pkg/errors"
	"github.com/streetmap-tiles/internal/usecase/dto"
)

// TileOptions - параметры рендера и кеширования тайлов
type TileOptions struct {
	Buffer       int
	Extent       int
	QueryTimeout time.Duration
	Concurrency  int
	CacheEnabled bool
	CacheTTL     time.Duration
}

type TileUseCase struct {
	catalog   LayerCatalog
	tileRepo  repository.TileRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
	opts      TileOptions
}

func NewTileUseCase(
	catalog LayerCatalog,
	tileRepo repository.TileRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	opts TileOptions,
) *TileUseCase {
	if opts.Buffer <= 0 {
		opts.Buffer = mvt.DefaultBuffer
	}
	if opts.Extent <= 0 {
		opts.Extent = mvt.DefaultExtent
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &TileUseCase{
		catalog:   catalog,
		tileRepo:  tileRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		opts:      opts,
	}
}

func cacheKey(set string, t mvt.Tile) string {
	return fmt.Sprintf("%s:%d:%d:%d", set, t.Zoom, t.X, t.Y)
}

// resolve находит набор слоев и проверяет координаты тайла
func (uc *TileUseCase) resolve(setName string, z, x, y int) (*domain.LayerSet, mvt.Tile, error) {
	set, ok := uc.catalog.LayerSet(setName)
	if !ok {
		return nil, mvt.Tile{}, apperrors.ErrLayerSetNotFound.WithDetails(map[string]interface{}{"set": setName})
	}

	tile := mvt.Tile{Zoom: z, X: x, Y: y, Buffer: uc.opts.Buffer, Extent: uc.opts.Extent}
	if z < 0 || z > mvt.MaxZoom {
		return nil, mvt.Tile{}, apperrors.ErrInvalidZoom.WithDetails(map[string]interface{}{"zoom": z, "max": mvt.MaxZoom})
	}
	if err := tile.Validate(); err != nil {
		return nil, mvt.Tile{}, apperrors.ErrInvalidTileCoordinates.WithMessage(err.Error())
	}
	return set, tile, nil
}

// GetTile возвращает тайл набора слоев: из кеша, либо рендерит каждый
// видимый слой и склеивает их в порядке объявления.
// Пустой тайл - валидный результат (пустой срез).
func (uc *TileUseCase) GetTile(ctx context.Context, setName string, z, x, y int) ([]byte, error) {
	set, tile, err := uc.resolve(setName, z, x, y)
	if err != nil {
		return nil, err
	}

	key := cacheKey(set.Name, tile)
	if uc.opts.CacheEnabled {
		cached, err := uc.cacheRepo.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("Tile cache lookup failed", zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	data, err := uc.render(ctx, set, tile)
	if err != nil {
		return nil, err
	}

	if uc.opts.CacheEnabled {
		if err := uc.cacheRepo.Set(ctx, key, data, uc.opts.CacheTTL); err != nil {
			uc.logger.Warn("Failed to cache tile", zap.String("key", key), zap.Error(err))
		}
	}
	return data, nil
}

// RefreshTile рендерит тайл заново и перезаписывает кеш (прогрев)
func (uc *TileUseCase) RefreshTile(ctx context.Context, setName string, z, x, y int) (int, error) {
	set, tile, err := uc.resolve(setName, z, x, y)
	if err != nil {
		return 0, err
	}

	data, err := uc.render(ctx, set, tile)
	if err != nil {
		return 0, err
	}

	if uc.opts.CacheEnabled {
		if err := uc.cacheRepo.Set(ctx, cacheKey(set.Name, tile), data, uc.opts.CacheTTL); err != nil {
			return 0, apperrors.ErrCacheError.WithMessage(err.Error())
		}
	}
	return len(data), nil
}

// InspectTile декодирует тайл и возвращает слои с количеством объектов
func (uc *TileUseCase) InspectTile(ctx context.Context, setName string, z, x, y int) (*dto.InspectResponse, error) {
	data, err := uc.GetTile(ctx, setName, z, x, y)
	if err != nil {
		return nil, err
	}

	resp := &dto.InspectResponse{
		Set:    setName,
		Tile:   mvt.NewTile(z, x, y).String(),
		Bytes:  len(data),
		Layers: []dto.LayerSummary{},
	}
	if len(data) == 0 {
		return resp, nil
	}

	layers, err := omvt.Unmarshal(data)
	if err != nil {
		uc.logger.Error("Failed to decode tile", zap.String("tile", resp.Tile), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}
	for _, l := range layers {
		resp.Layers = append(resp.Layers, dto.LayerSummary{
			Name:     l.Name,
			Features: len(l.Features),
			Extent:   l.Extent,
		})
	}
	return resp, nil
}

// ListLayerSets возвращает каталог наборов слоев
func (uc *TileUseCase) ListLayerSets() *dto.CatalogResponse {
	sets := uc.catalog.LayerSets()
	resp := &dto.CatalogResponse{LayerSets: make([]dto.LayerSetInfo, 0, len(sets))}

	for _, s := range sets {
		minZoom, maxZoom := s.ZoomRange()
		info := dto.LayerSetInfo{
			Name:    s.Name,
			MinZoom: minZoom,
			MaxZoom: maxZoom,
			Layers:  make([]dto.LayerInfo, 0, len(s.Layers)),
		}
		for _, q := range s.Layers {
			info.Layers = append(info.Layers, dto.LayerInfo{
				Name:    q.LayerName(),
				MinZoom: q.MinRenderZoom,
				MaxZoom: q.MaxRenderZoom,
			})
		}
		resp.LayerSets = append(resp.LayerSets, info)
	}
	return resp
}

// render выполняет запросы слоев параллельно (не больше Concurrency
// одновременно). Ошибка слоя логируется и слой пропускается.
func (uc *TileUseCase) render(ctx context.Context, set *domain.LayerSet, tile mvt.Tile) ([]byte, error) {
	start := time.Now()
	blobs := make([][]byte, len(set.Layers))

	var g errgroup.Group
	g.SetLimit(uc.opts.Concurrency)

	for i, q := range set.Layers {
		g.Go(func() error {
			blobs[i] = uc.renderLayer(ctx, set.Name, q, tile)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := bytes.Join(blobs, nil)
	uc.logger.Debug("Tile rendered",
		zap.String("set", set.Name),
		zap.String("tile", tile.String()),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	return data, nil
}

func (uc *TileUseCase) renderLayer(ctx context.Context, setName string, q mvt.Query, tile mvt.Tile) []byte {
	stmt, err := q.AsMVT(tile)
	if errors.Is(err, mvt.ErrZoomOutOfRange) {
		return nil
	}
	if err != nil {
		uc.logger.Error("Failed to build layer query",
			zap.String("set", setName),
			zap.String("layer", q.LayerName()),
			zap.Error(err))
		return nil
	}

	qctx := ctx
	if uc.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, uc.opts.QueryTimeout)
		defer cancel()
	}

	data, err := uc.tileRepo.RenderLayer(qctx, stmt)
	if err != nil {
		uc.logger.Error("Failed to render layer",
			zap.String("set", setName),
			zap.String("layer", q.LayerName()),
			zap.String("tile", tile.String()),
			zap.Error(err))
		return nil
	}
	return data
}
