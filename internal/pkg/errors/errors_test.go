package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDetails_DoesNotMutateTemplate(t *testing.T) {
	e := ErrInvalidZoom.WithDetails(map[string]interface{}{"zoom": 30})

	assert.Equal(t, 30, e.Details["zoom"])
	assert.Empty(t, ErrInvalidZoom.Details)
	assert.Equal(t, ErrInvalidZoom.StatusCode, e.StatusCode)
}

func TestIs_MatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrLayerSetNotFound.WithDetails(map[string]interface{}{"set": "x"}))

	assert.True(t, errors.Is(wrapped, ErrLayerSetNotFound))
	assert.False(t, errors.Is(wrapped, ErrCollectionNotFound))
}

func TestAs(t *testing.T) {
	appErr, ok := As(fmt.Errorf("wrap: %w", ErrTooManyTiles))
	assert.True(t, ok)
	assert.Equal(t, "TOO_MANY_TILES", appErr.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestWithMessage(t *testing.T) {
	e := ErrInvalidBounds.WithMessage("min must be below max")
	assert.Equal(t, "INVALID_BOUNDS: min must be below max", e.Error())
	assert.Equal(t, "Invalid bounding box", ErrInvalidBounds.Message)
}
