package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/mvt"
	"github.com/streetmap-tiles/internal/worker"
)

const errorBackoff = time.Second

// TileRefresher - перерендер тайла с записью в кеш
type TileRefresher interface {
	RefreshTile(ctx context.Context, set string, z, x, y int) (int, error)
}

// JobResult - итог обработки задания прогрева
type JobResult struct {
	Tiles  int
	Bytes  int
	Failed int
}

// SeedWorker прогревает кеш тайлов по заданиям из stream:tiles:seed
type SeedWorker struct {
	*worker.BaseWorker
	streamRepo repository.StreamRepository
	tiles      TileRefresher
	batchSize  int64
	maxTiles   int
}

var _ worker.Worker = (*SeedWorker)(nil)

// NewSeedWorker создает новый SeedWorker
func NewSeedWorker(
	streamRepo repository.StreamRepository,
	tiles TileRefresher,
	consumerGroup string,
	batchSize int,
	maxTiles int,
	logger *zap.Logger,
) *SeedWorker {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &SeedWorker{
		BaseWorker: worker.NewBaseWorker("tile-seed", domain.StreamTilesSeed, consumerGroup, logger),
		streamRepo: streamRepo,
		tiles:      tiles,
		batchSize:  int64(batchSize),
		maxTiles:   maxTiles,
	}
}

// Start запускает воркер
func (w *SeedWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting SeedWorker",
		zap.String("stream", w.Stream()),
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()))

	if err := w.streamRepo.CreateConsumerGroup(ctx, w.Stream(), w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for !w.Done(ctx) {
		// ConsumeBatch блокируется на время чтения стрима, отдельная пауза не нужна
		if _, err := w.ProcessBatch(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("Failed to process batch", zap.Error(err))
			if !w.Sleep(ctx, errorBackoff) {
				break
			}
		}
	}

	logger.Info("Worker stopped")
	return nil
}

// ProcessBatch читает и обрабатывает пачку заданий.
// Возвращает количество прочитанных сообщений.
func (w *SeedWorker) ProcessBatch(ctx context.Context) (int, error) {
	messages, err := w.streamRepo.ConsumeBatch(ctx, w.Stream(), w.ConsumerGroup(), w.ConsumerName(), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	for _, msg := range messages {
		if w.Done(ctx) {
			// неподтвержденные задания останутся в pending
			return len(messages), nil
		}
		w.handle(ctx, msg)
	}
	return len(messages), nil
}

func (w *SeedWorker) handle(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	req, err := w.parse(msg)
	if err != nil {
		// ACK битое сообщение чтобы не застревало
		logger.Warn("Dropping seed message", zap.Error(err))
		w.ack(ctx, msg.ID)
		return
	}

	logger = logger.With(zap.String("job_id", req.JobID.String()), zap.String("set", req.LayerSet))
	start := time.Now()

	result, err := w.Run(ctx, req)
	if err != nil {
		logger.Warn("Seed job interrupted, left pending", zap.Error(err))
		return
	}

	w.ack(ctx, msg.ID)
	logger.Info("Seed job done",
		zap.Int("tiles", result.Tiles),
		zap.Int("failed", result.Failed),
		zap.Int("bytes", result.Bytes),
		zap.Duration("took", time.Since(start)))
}

func (w *SeedWorker) parse(msg domain.StreamMessage) (*domain.SeedRequest, error) {
	var req domain.SeedRequest
	if err := json.Unmarshal([]byte(msg.Data), &req); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.MaxZoom > mvt.MaxZoom {
		return nil, fmt.Errorf("max zoom %d above %d", req.MaxZoom, mvt.MaxZoom)
	}

	total := 0
	for z := req.MinZoom; z <= req.MaxZoom; z++ {
		total += mvt.CoverCount(req.Bound(), z)
	}
	if total > w.maxTiles {
		return nil, fmt.Errorf("job covers %d tiles, limit %d", total, w.maxTiles)
	}
	return &req, nil
}

// Run рендерит все тайлы задания, зум за зумом. Ошибка отдельного тайла
// учитывается в Failed, прерывание (остановка, отмена ctx) возвращается.
func (w *SeedWorker) Run(ctx context.Context, req *domain.SeedRequest) (JobResult, error) {
	var result JobResult
	bound := req.Bound()

	for z := req.MinZoom; z <= req.MaxZoom; z++ {
		for _, t := range mvt.Cover(bound, z) {
			if w.Done(ctx) {
				return result, errors.New("worker stopping")
			}

			n, err := w.tiles.RefreshTile(ctx, req.LayerSet, t.Zoom, t.X, t.Y)
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				result.Failed++
				w.Logger().Debug("Tile refresh failed", zap.String("tile", t.String()), zap.Error(err))
				continue
			}
			result.Tiles++
			result.Bytes += n
		}
	}
	return result, nil
}

func (w *SeedWorker) ack(ctx context.Context, id string) {
	if err := w.streamRepo.AckMessage(ctx, w.Stream(), w.ConsumerGroup(), id); err != nil {
		w.Logger().Error("Failed to ack message", zap.String("message_id", id), zap.Error(err))
	}
}
