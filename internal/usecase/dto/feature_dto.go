package dto

// FeatureCollectionParams - параметры запроса GeoJSON коллекции
type FeatureCollectionParams struct {
	Collection string `validate:"required,slug"`
	// BBox - minLon,minLat,maxLon,maxLat, пустая строка означает без ограничения
	BBox string
}
