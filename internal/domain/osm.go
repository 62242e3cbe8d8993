package domain

import "github.com/paulmach/orb"

// Import kinds
const (
	ImportHighways   = "highways"
	ImportBoundaries = "boundaries"
	ImportIslands    = "islands"
)

// FacebookRoad - дорога из GeoPackage выгрузки Facebook AI (RapiD).
// ID - way_fbid, геометрия в EPSG:3857
type FacebookRoad struct {
	ID       int64
	Highway  string
	Geometry orb.MultiLineString
}

// Highway - дорога OSM (way с тегом highway), геометрия в EPSG:3857
type Highway struct {
	ID       int64
	Name     string
	Highway  string
	Geometry orb.LineString
}

// AdminBoundary - административная граница (way с тегом boundary=administrative)
type AdminBoundary struct {
	ID       int64
	Name     string
	Geometry orb.LineString
}

// Island - береговая линия острова (place=island / place=islet).
// Замкнутые линии дополнительно сохраняются как полигоны.
type Island struct {
	ID       int64
	Name     string
	Geometry orb.LineString
}

// Closed сообщает, образует ли линия кольцо
func (i *Island) Closed() bool {
	n := len(i.Geometry)
	return n >= 4 && i.Geometry[0] == i.Geometry[n-1]
}

// Polygon возвращает полигон по замкнутой линии
func (i *Island) Polygon() orb.Polygon {
	return orb.Polygon{orb.Ring(i.Geometry)}
}
