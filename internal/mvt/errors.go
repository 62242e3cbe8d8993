package mvt

import (
	"errors"
	"fmt"
)

// ErrZoomOutOfRange reports a tile outside the layer's render range.
// Callers treat it as an empty layer rather than a failure.
var ErrZoomOutOfRange = errors.New("mvt: zoom outside layer render range")

var (
	ErrInvalidTile       = errors.New("mvt: invalid tile")
	ErrNoGeometryColumn  = errors.New("mvt: no geometry column")
	ErrNoPrimaryKey      = errors.New("mvt: no primary key column")
	ErrConflictingSource = errors.New("mvt: table and queryset source are mutually exclusive")
	ErrMissingSource     = errors.New("mvt: neither table nor queryset source set")
	ErrQuerysetArgs      = errors.New("mvt: queryset placeholder without argument")
)

// ConfigError is a layer configuration problem detected while building a
// query. It is raised at registration time, before any tile is served.
type ConfigError struct {
	Layer string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mvt: layer %q: %v", e.Layer, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(layer string, err error) error {
	return &ConfigError{Layer: layer, Err: err}
}
