package geometry

// Models a 3D coordinate in an arbitrary spatial reference system
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

// Models a geographic position as longitude and latitude in decimal degrees
type GeoPoint struct {
	Lon float64
	Lat float64
}

// Models a 2D axis aligned extent. For geographic extents X is longitude
// and Y is latitude, both in decimal degrees.
type Extent struct {
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// Builds a new Extent from the given bounds
func NewExtent(xmin, ymin, xmax, ymax float64) *Extent {
	return &Extent{
		Xmin: xmin,
		Ymin: ymin,
		Xmax: xmax,
		Ymax: ymax,
	}
}

// Returns true if the given point lies inside the extent. Points on the
// min edges are inside, points on the max edges are not, so adjacent tile
// extents partition the plane without overlap.
func (e *Extent) Contains(p GeoPoint) bool {
	return p.Lon >= e.Xmin && p.Lon < e.Xmax && p.Lat >= e.Ymin && p.Lat < e.Ymax
}

// Returns true if the given point lies inside the extent including all edges
func (e *Extent) ContainsClosed(p GeoPoint) bool {
	return p.Lon >= e.Xmin && p.Lon <= e.Xmax && p.Lat >= e.Ymin && p.Lat <= e.Ymax
}

// Returns true if the two extents overlap
func (e *Extent) Intersects(other *Extent) bool {
	return e.Xmin < other.Xmax && other.Xmin < e.Xmax &&
		e.Ymin < other.Ymax && other.Ymin < e.Ymax
}

// Returns the center of the extent
func (e *Extent) Center() GeoPoint {
	return GeoPoint{
		Lon: (e.Xmin + e.Xmax) / 2,
		Lat: (e.Ymin + e.Ymax) / 2,
	}
}

// Returns the width of the extent
func (e *Extent) Width() float64 {
	return e.Xmax - e.Xmin
}

// Returns the height of the extent
func (e *Extent) Height() float64 {
	return e.Ymax - e.Ymin
}
