package topology

import (
	"github.com/ecopia-map/globe_terrain/internal/geometry"
)

// Latitude where the web mercator projection is cut off, atan(sinh(pi))
const MercatorLimitLatitude = 85.05112877980659

// Group identifies one of the disjoint root regions of the surface
// partition. The main band uses web mercator XYZ indexing, the polar caps
// use a plain geographic grid over their latitude span. Indexing math is
// distinct per group, see tile_coords.go.
type Group int

const (
	MainBand Group = iota
	NorthCap
	SouthCap
)

func (g Group) String() string {
	switch g {
	case MainBand:
		return "main"
	case NorthCap:
		return "north"
	case SouthCap:
		return "south"
	}
	return "unknown"
}

// Models the surface partition of a planet: which root groups exist and
// how deep each of them may subdivide.
type Topology struct {
	groups   []Group
	maxDepth map[Group]int
}

// Builds a topology with a single mercator band covering the whole
// indexable surface. Positions beyond the mercator latitude limit clamp
// into the outermost rows.
func NewMercatorTopology(maxDepth int) *Topology {
	return &Topology{
		groups: []Group{MainBand},
		maxDepth: map[Group]int{
			MainBand: maxDepth,
		},
	}
}

// Builds a topology with three disjoint roots: the mercator main band plus
// the two polar caps. Their extents union to the whole surface.
func NewPolarTopology(maxDepth int, capMaxDepth int) *Topology {
	return &Topology{
		groups: []Group{MainBand, NorthCap, SouthCap},
		maxDepth: map[Group]int{
			MainBand: maxDepth,
			NorthCap: capMaxDepth,
			SouthCap: capMaxDepth,
		},
	}
}

// Returns the root groups of the partition in deterministic order
func (t *Topology) Groups() []Group {
	return t.groups
}

// Returns the maximum subdivision depth allowed for the given group
func (t *Topology) MaxDepth(g Group) int {
	return t.maxDepth[g]
}

// Returns the group whose latitude band contains the given point. With a
// single-band topology everything maps to the main band.
func (t *Topology) GroupFor(p geometry.GeoPoint) Group {
	if len(t.groups) == 1 {
		return MainBand
	}
	if p.Lat > MercatorLimitLatitude {
		return NorthCap
	}
	if p.Lat < -MercatorLimitLatitude {
		return SouthCap
	}
	return MainBand
}

// Returns the full extent covered by the given group
func (t *Topology) GroupExtent(g Group) *geometry.Extent {
	switch g {
	case NorthCap:
		return geometry.NewExtent(-180, MercatorLimitLatitude, 180, 90)
	case SouthCap:
		return geometry.NewExtent(-180, -90, 180, -MercatorLimitLatitude)
	default:
		if len(t.groups) == 1 {
			return geometry.NewExtent(-180, -90, 180, 90)
		}
		return geometry.NewExtent(-180, -MercatorLimitLatitude, 180, MercatorLimitLatitude)
	}
}
