package errors

import "net/http"

var (
	ErrLayerSetNotFound = New(
		"LAYER_SET_NOT_FOUND",
		"Layer set not found",
		http.StatusNotFound,
	)

	ErrCollectionNotFound = New(
		"COLLECTION_NOT_FOUND",
		"Feature collection not found",
		http.StatusNotFound,
	)

	ErrInvalidZoom = New(
		"INVALID_ZOOM",
		"Invalid zoom level",
		http.StatusBadRequest,
	)

	ErrInvalidTileCoordinates = New(
		"INVALID_TILE_COORDINATES",
		"Invalid tile coordinates",
		http.StatusBadRequest,
	)

	ErrInvalidBounds = New(
		"INVALID_BOUNDS",
		"Invalid bounding box",
		http.StatusBadRequest,
	)

	ErrTooManyTiles = New(
		"TOO_MANY_TILES",
		"Seed job covers too many tiles",
		http.StatusBadRequest,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrQueueError = New(
		"QUEUE_ERROR",
		"Failed to enqueue job",
		http.StatusServiceUnavailable,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
