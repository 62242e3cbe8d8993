package usecase

import (
	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/geofeature"
)

// LayerCatalog - зарегистрированные наборы слоев и GeoJSON коллекции
type LayerCatalog interface {
	LayerSet(name string) (*domain.LayerSet, bool)
	LayerSets() []*domain.LayerSet
	Collection(name string) (geofeature.CollectionQuery, bool)
}
