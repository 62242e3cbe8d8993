package domain

import "github.com/streetmap-tiles/internal/mvt"

// LayerSet - именованный набор слоёв, которые склеиваются в один тайл
// в порядке объявления
type LayerSet struct {
	Name   string
	Layers []mvt.Query
}

// VisibleAt возвращает слои, отображаемые на данном зуме
func (s *LayerSet) VisibleAt(zoom int) []mvt.Query {
	visible := make([]mvt.Query, 0, len(s.Layers))
	for _, layer := range s.Layers {
		if layer.Visible(zoom) {
			visible = append(visible, layer)
		}
	}
	return visible
}

// ZoomRange возвращает минимальный и максимальный зум, на которых
// хотя бы один слой виден. nil означает отсутствие ограничения.
func (s *LayerSet) ZoomRange() (minZoom, maxZoom *int) {
	unboundedMin, unboundedMax := false, false
	for _, layer := range s.Layers {
		if layer.MinRenderZoom == nil {
			unboundedMin = true
		} else if minZoom == nil || *layer.MinRenderZoom < *minZoom {
			minZoom = layer.MinRenderZoom
		}
		if layer.MaxRenderZoom == nil {
			unboundedMax = true
		} else if maxZoom == nil || *layer.MaxRenderZoom > *maxZoom {
			maxZoom = layer.MaxRenderZoom
		}
	}
	if unboundedMin {
		minZoom = nil
	}
	if unboundedMax {
		maxZoom = nil
	}
	return minZoom, maxZoom
}
