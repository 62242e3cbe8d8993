package mvt

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

const (
	DefaultBuffer = 64
	DefaultExtent = 4096

	// WebMercatorSRID is the SRID tiles are rendered in.
	WebMercatorSRID = 3857

	// MaxZoom is the deepest zoom level accepted by Validate.
	MaxZoom = 24
)

// Names of the parameters a Tile contributes to a statement.
const (
	ParamZoom   = "zoom"
	ParamX      = "x"
	ParamY      = "y"
	ParamBuffer = "buffer"
	ParamExtent = "extent"
	ParamMargin = "margin"
)

// Tile addresses one XYZ tile together with its rendering geometry.
type Tile struct {
	Zoom   int
	X      int
	Y      int
	Buffer int
	Extent int
}

// NewTile returns a tile with the default buffer and extent.
func NewTile(zoom, x, y int) Tile {
	return Tile{Zoom: zoom, X: x, Y: y, Buffer: DefaultBuffer, Extent: DefaultExtent}
}

// FromMapTile converts an orb tile address.
func FromMapTile(t maptile.Tile) Tile {
	return NewTile(int(t.Z), int(t.X), int(t.Y))
}

// MapTile returns the orb address of the tile.
func (t Tile) MapTile() maptile.Tile {
	return maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.Zoom))
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// Validate checks the address against the grid of its zoom level and
// that buffer and extent are positive.
func (t Tile) Validate() error {
	if t.Zoom < 0 || t.Zoom > MaxZoom {
		return fmt.Errorf("%w: zoom %d outside [0, %d]", ErrInvalidTile, t.Zoom, MaxZoom)
	}
	if n := 1 << t.Zoom; t.X < 0 || t.Y < 0 || t.X >= n || t.Y >= n {
		return fmt.Errorf("%w: %s outside the zoom %d grid", ErrInvalidTile, t, t.Zoom)
	}
	if t.Buffer <= 0 || t.Extent <= 0 {
		return fmt.Errorf("%w: buffer %d and extent %d must be positive", ErrInvalidTile, t.Buffer, t.Extent)
	}
	return nil
}

// Margin is the buffer expressed as a fraction of the extent.
func (t Tile) Margin() float64 {
	if t.Extent == 0 {
		return 0
	}
	return float64(t.Buffer) / float64(t.Extent)
}

// Params returns the named parameter values referenced by Envelope,
// EnvelopeMargin and the ST_AsMVT projection.
func (t Tile) Params() map[string]any {
	return map[string]any{
		ParamZoom:   t.Zoom,
		ParamX:      t.X,
		ParamY:      t.Y,
		ParamBuffer: t.Buffer,
		ParamExtent: t.Extent,
		ParamMargin: t.Margin(),
	}
}

// Envelope is the exact tile bounds in Web Mercator.
func (Tile) Envelope() sqlbuild.Node {
	return sqlbuild.Format("ST_TileEnvelope({zoom}, {x}, {y})", tileArgs())
}

// EnvelopeMargin is the tile bounds widened by buffer/extent on every side.
func (Tile) EnvelopeMargin() sqlbuild.Node {
	return sqlbuild.Format("ST_TileEnvelope({zoom}, {x}, {y}, margin => {margin})", tileArgs())
}

func tileArgs() sqlbuild.Args {
	return sqlbuild.Args{
		ParamZoom:   sqlbuild.Param(ParamZoom),
		ParamX:      sqlbuild.Param(ParamX),
		ParamY:      sqlbuild.Param(ParamY),
		ParamMargin: sqlbuild.Param(ParamMargin),
	}
}

// Cover returns every tile of the given zoom intersecting bound, which is
// expressed in longitude/latitude.
func Cover(bound orb.Bound, zoom int) []Tile {
	n := CoverCount(bound, zoom)
	if n == 0 {
		return nil
	}
	minTile, maxTile := coverRange(bound, zoom)

	tiles := make([]Tile, 0, n)
	for x := minTile.X; x <= maxTile.X; x++ {
		for y := minTile.Y; y <= maxTile.Y; y++ {
			tiles = append(tiles, FromMapTile(maptile.New(x, y, minTile.Z)))
		}
	}
	return tiles
}

// CoverCount is len(Cover(bound, zoom)) without allocating the tiles.
func CoverCount(bound orb.Bound, zoom int) int {
	minTile, maxTile := coverRange(bound, zoom)
	if maxTile.X < minTile.X || maxTile.Y < minTile.Y {
		return 0
	}
	return int(maxTile.X-minTile.X+1) * int(maxTile.Y-minTile.Y+1)
}

const maxLatitude = 85.05112878

func coverRange(bound orb.Bound, zoom int) (maptile.Tile, maptile.Tile) {
	z := maptile.Zoom(zoom)
	last := uint32(1)<<z - 1

	clampTile := func(lon, lat float64) maptile.Tile {
		lon = math.Max(-180, math.Min(180, lon))
		lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
		t := maptile.At(orb.Point{lon, lat}, z)
		t.X = min(t.X, last)
		t.Y = min(t.Y, last)
		return t
	}

	return clampTile(bound.Min.X(), bound.Max.Y()), clampTile(bound.Max.X(), bound.Min.Y())
}
