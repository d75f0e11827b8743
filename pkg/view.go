package pkg

import (
	"math"

	"github.com/ecopia-map/globe_terrain/internal/geometry"
)

// Meters per degree of latitude on the WGS84 ellipsoid, good enough for a
// screen space error estimate
const metersPerDegree = 111319.49079327358

// PointView is a simple deterministic camera collaborator: an eye
// hovering over a point, looking straight down. Real embedders plug in
// their own frustum and projection; this one backs the demo binary and
// the traversal tests.
type PointView struct {
	Eye      geometry.GeoPoint
	Altitude float64 // meters above the ellipsoid

	ViewportWidth  int     // pixels
	FieldOfViewDeg float64 // horizontal field of view
	ViewRadiusDeg  float64 // angular frustum radius around the eye
}

func NewPointView(eye geometry.GeoPoint, altitude float64) *PointView {
	return &PointView{
		Eye:            eye,
		Altitude:       altitude,
		ViewportWidth:  1024,
		FieldOfViewDeg: 60,
		ViewRadiusDeg:  5,
	}
}

// Returns true if the extent lies within the angular frustum radius of
// the eye
func (v *PointView) Intersects(extent *geometry.Extent) bool {
	frustum := geometry.NewExtent(
		v.Eye.Lon-v.ViewRadiusDeg,
		v.Eye.Lat-v.ViewRadiusDeg,
		v.Eye.Lon+v.ViewRadiusDeg,
		v.Eye.Lat+v.ViewRadiusDeg,
	)
	return extent.Intersects(frustum)
}

// Projects the extent's ground size to pixels at the eye distance. The
// extent edge length in meters shrinks with the cosine of its center
// latitude, the distance is at least the eye altitude.
func (v *PointView) ScreenSpaceError(extent *geometry.Extent) float64 {
	center := extent.Center()

	widthMeters := extent.Width() * metersPerDegree * math.Cos(center.Lat*math.Pi/180)
	if widthMeters < 0 {
		widthMeters = 0
	}

	horizontal := angularDistanceDeg(v.Eye, center) * metersPerDegree
	distance := math.Hypot(horizontal, v.Altitude)
	if distance < 1 {
		distance = 1
	}

	viewPlaneWidth := 2 * distance * math.Tan(v.FieldOfViewDeg/2*math.Pi/180)
	return widthMeters / viewPlaneWidth * float64(v.ViewportWidth)
}

func angularDistanceDeg(a, b geometry.GeoPoint) float64 {
	dLon := (a.Lon - b.Lon) * math.Cos((a.Lat+b.Lat)/2*math.Pi/180)
	dLat := a.Lat - b.Lat
	return math.Hypot(dLon, dLat)
}
