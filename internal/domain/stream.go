package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Stream names
const (
	StreamTilesSeed = "stream:tiles:seed"
)

// SeedRequest - задание на предварительный рендер тайлов в кеш
type SeedRequest struct {
	JobID    uuid.UUID  `json:"job_id"`
	LayerSet string     `json:"layer_set"`
	MinZoom  int        `json:"min_zoom"`
	MaxZoom  int        `json:"max_zoom"`
	Bounds   [4]float64 `json:"bounds"` // minLon, minLat, maxLon, maxLat
}

// Bound возвращает границы задания в lon/lat
func (r *SeedRequest) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.Bounds[0], r.Bounds[1]},
		Max: orb.Point{r.Bounds[2], r.Bounds[3]},
	}
}

// Validate проверяет диапазон зумов и границы
func (r *SeedRequest) Validate() error {
	if r.LayerSet == "" {
		return fmt.Errorf("layer set is required")
	}
	if r.MinZoom < 0 || r.MaxZoom < r.MinZoom {
		return fmt.Errorf("invalid zoom range %d..%d", r.MinZoom, r.MaxZoom)
	}
	minLon, minLat, maxLon, maxLat := r.Bounds[0], r.Bounds[1], r.Bounds[2], r.Bounds[3]
	if minLon < -180 || maxLon > 180 || minLat < -90 || maxLat > 90 {
		return fmt.Errorf("bounds outside lon/lat range")
	}
	if minLon >= maxLon || minLat >= maxLat {
		return fmt.Errorf("bounds must have min < max")
	}
	return nil
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
