package dto

import (
	"github.com/google/uuid"

	"github.com/streetmap-tiles/internal/domain"
)

// TileParams - параметры пути тайла /:set/:z/:x/:y
type TileParams struct {
	Set  string `validate:"required,slug"`
	Zoom int    `validate:"min=0,max=24"`
	X    int    `validate:"min=0"`
	Y    int    `validate:"min=0"`
}

// LayerInfo - описание слоя в каталоге
type LayerInfo struct {
	Name    string `json:"name"`
	MinZoom *int   `json:"min_zoom,omitempty"`
	MaxZoom *int   `json:"max_zoom,omitempty"`
}

// LayerSetInfo - описание набора слоев
type LayerSetInfo struct {
	Name    string      `json:"name"`
	MinZoom *int        `json:"min_zoom,omitempty"`
	MaxZoom *int        `json:"max_zoom,omitempty"`
	Layers  []LayerInfo `json:"layers"`
}

// CatalogResponse - список наборов слоев
type CatalogResponse struct {
	LayerSets []LayerSetInfo `json:"layer_sets"`
}

// LayerSummary - слой в отрендеренном тайле
type LayerSummary struct {
	Name     string `json:"name"`
	Features int    `json:"features"`
	Extent   uint32 `json:"extent"`
}

// InspectResponse - содержимое тайла для отладки
type InspectResponse struct {
	Set    string         `json:"set"`
	Tile   string         `json:"tile"`
	Bytes  int            `json:"bytes"`
	Layers []LayerSummary `json:"layers"`
}

// SeedTileRequest - запрос на прогрев кеша тайлов
type SeedTileRequest struct {
	MinZoom int                `json:"min_zoom" validate:"min=0,max=24"`
	MaxZoom int                `json:"max_zoom" validate:"min=0,max=24,gtefield=MinZoom"`
	BBox    domain.BoundingBox `json:"bbox"`
}

// SeedTileResponse - принятое задание прогрева
type SeedTileResponse struct {
	JobID     uuid.UUID `json:"job_id"`
	LayerSet  string    `json:"layer_set"`
	Tiles     int       `json:"tiles"`
	MessageID string    `json:"message_id"`
}
