package domain

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

type BoundingBox struct {
	MinLat float64 `json:"min_lat" db:"min_lat"`
	MinLon float64 `json:"min_lon" db:"min_lon"`
	MaxLat float64 `json:"max_lat" db:"max_lat"`
	MaxLon float64 `json:"max_lon" db:"max_lon"`
}

// Bound конвертирует bbox в orb.Bound (lon/lat)
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Validate проверяет что bbox лежит в пределах WGS84 и не вырожден
func (b BoundingBox) Validate() error {
	if b.MinLon < -180 || b.MaxLon > 180 || b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("bbox outside lon/lat range")
	}
	if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return fmt.Errorf("bbox must have min < max")
	}
	return nil
}

// ImportStats статистика импорта OSM выгрузки
type ImportStats struct {
	Highways      int           `json:"highways"`
	Boundaries    int           `json:"boundaries"`
	Islands       int           `json:"islands"`
	IslandAreas   int           `json:"island_areas"`
	FacebookRoads int           `json:"facebook_roads"`
	Skipped       int           `json:"skipped"`
	Duration      time.Duration `json:"duration"`
}
