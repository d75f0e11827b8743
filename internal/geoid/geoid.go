package geoid

import (
	"github.com/ecopia-map/globe_terrain/internal/geometry"
)

// Returns the geoid undulation, i.e. the height of the mean sea level
// surface above the reference ellipsoid, at the given position.
// Implementations may lazily load their backing data; before the data is
// available they return zero rather than failing, worst case the terrain
// renders relative to the plain ellipsoid.
type Lookup interface {
	GetHeightAt(p geometry.GeoPoint) float64
}

// Lookup applying the same undulation everywhere. Useful where a constant
// offset is a good enough approximation of the local geoid.
type OffsetLookup struct {
	Offset float64
}

func NewOffsetLookup(offset float64) Lookup {
	return &OffsetLookup{
		Offset: offset,
	}
}

func (l *OffsetLookup) GetHeightAt(p geometry.GeoPoint) float64 {
	return l.Offset
}
