package converters

import (
	"github.com/ecopia-map/globe_terrain/internal/geometry"
)

// Converts coordinates and extents between spatial reference systems.
// Implementations cache whatever projection state they need and release it
// in Cleanup.
type CoordinateConverter interface {
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error)
	ConvertExtentSrid(sourceSrid int, targetSrid int, extent *geometry.Extent) (*geometry.Extent, error)
	Cleanup()
}
