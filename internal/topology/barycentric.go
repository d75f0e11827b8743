package topology

import (
	"errors"

	"github.com/ecopia-map/globe_terrain/internal/geometry"
)

// Returned by BarycentricHeight when the point lies outside both triangles
// of the grid cell. Callers treat it as a non fatal data integrity
// condition, not as a failure.
var ErrNotInTriangle = errors.New("point not contained in either cell triangle")

// Tolerance on barycentric coordinates, absorbs the rounding noise of the
// tile extent math near cell edges
const barycentricEpsilon = 1e-9

// Interpolates a height at p from the four corners of a grid cell. The
// cell is split into the two triangles (v0,v1,v2) and (v1,v2,v3); the
// interpolation comes from whichever triangle contains the point.
//
// Corner order matches the row-major grid layout: v0 and v1 are the two
// corners on the first row, v2 and v3 the ones below them.
func BarycentricHeight(p geometry.GeoPoint, v0, v1, v2, v3 geometry.GeoPoint, heights [4]float64) (float64, error) {
	if h, ok := triangleHeight(p, v0, v1, v2, heights[0], heights[1], heights[2]); ok {
		return h, nil
	}
	if h, ok := triangleHeight(p, v1, v2, v3, heights[1], heights[2], heights[3]); ok {
		return h, nil
	}
	return 0, ErrNotInTriangle
}

// Computes the barycentric coordinates of p in the triangle (a,b,c) and
// returns the interpolated height when all three are non negative.
func triangleHeight(p, a, b, c geometry.GeoPoint, ha, hb, hc float64) (float64, bool) {
	det := (b.Lat-c.Lat)*(a.Lon-c.Lon) + (c.Lon-b.Lon)*(a.Lat-c.Lat)
	if det == 0 {
		// degenerate cell, cannot hold any point
		return 0, false
	}

	l0 := ((b.Lat-c.Lat)*(p.Lon-c.Lon) + (c.Lon-b.Lon)*(p.Lat-c.Lat)) / det
	l1 := ((c.Lat-a.Lat)*(p.Lon-c.Lon) + (a.Lon-c.Lon)*(p.Lat-c.Lat)) / det
	l2 := 1 - l0 - l1

	if l0 < -barycentricEpsilon || l1 < -barycentricEpsilon || l2 < -barycentricEpsilon {
		return 0, false
	}

	return l0*ha + l1*hb + l2*hc, true
}
