package quadtree

import (
	"github.com/ecopia-map/globe_terrain/internal/converters"
	"github.com/ecopia-map/globe_terrain/internal/elevation"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/internal/topology"
	"github.com/golang/glog"
)

// Spatial reference of segment projected extents
const projectedSrid = 3857
const geographicSrid = 4326

// View is the camera collaborator: frustum intersection and the projected
// screen space size of an extent in pixels.
type View interface {
	Intersects(extent *geometry.Extent) bool
	ScreenSpaceError(extent *geometry.Extent) float64
}

// Strategy owns the root node set of a planet's surface partition and
// drives the per frame traversal. Topologies with polar caps keep three
// independent roots whose extents union to the whole surface.
//
// The traversal is deterministic: depth first, children visited in the
// fixed order south-west, south-east, north-west, north-east, so repeated
// traversal over a static view yields an identical terminal node set.
type Strategy struct {
	topo      *topology.Topology
	arena     *Arena
	loader    *elevation.Loader
	converter converters.CoordinateConverter

	// screen space error in pixels above which a node subdivides
	subdivisionThreshold float64

	roots []NodeID
}

// Builds a strategy with one root node per topology group
func NewStrategy(
	topo *topology.Topology,
	loader *elevation.Loader,
	converter converters.CoordinateConverter,
	subdivisionThreshold float64,
) *Strategy {
	s := &Strategy{
		topo:                 topo,
		arena:                NewArena(),
		loader:               loader,
		converter:            converter,
		subdivisionThreshold: subdivisionThreshold,
	}

	for _, g := range topo.Groups() {
		root := topology.TileIndex{X: 0, Y: 0, Zoom: 0, Group: g}
		s.roots = append(s.roots, s.createNode(root, InvalidNodeID))
	}

	return s
}

// Returns the root node ids in deterministic group order
func (s *Strategy) Roots() []NodeID {
	return s.roots
}

// Returns the arena holding the strategy's nodes
func (s *Strategy) Arena() *Arena {
	return s.arena
}

// Runs one traversal over the given view and returns the tile indices of
// the terminal rendering candidates in visit order.
func (s *Strategy) Update(view View) []topology.TileIndex {
	var terminals []topology.TileIndex
	for _, rootID := range s.roots {
		terminals = s.walk(rootID, view, terminals)
	}
	return terminals
}

func (s *Strategy) walk(id NodeID, view View, terminals []topology.TileIndex) []topology.TileIndex {
	node := s.arena.Get(id)
	if node == nil {
		return terminals
	}

	if !view.Intersects(node.extent) {
		s.suspend(node)
		return terminals
	}

	if node.state == StateNotRendering {
		node.state = StateWalking
	}

	sse := view.ScreenSpaceError(node.extent)
	if sse > s.subdivisionThreshold && node.index.Zoom < s.topo.MaxDepth(node.index.Group) {
		// subdivide: the node walks its children and is not itself a
		// terminal candidate
		s.ensureChildren(node)
		node.state = StateWalking
		for _, childID := range node.children {
			terminals = s.walk(childID, view, terminals)
		}
		return terminals
	}

	// the error fell back below threshold: demote the whole subtree
	if node.hasChildren {
		s.destroyChildren(node)
	}

	s.renderCandidate(node)
	return append(terminals, node.index)
}

// Marks a node as a terminal rendering candidate, requesting its segment
// data when not resident
func (s *Strategy) renderCandidate(node *QuadNode) {
	seg := node.segment
	if !seg.HasData() {
		if !seg.IsLoading() {
			// rejected while the terrain lock is engaged; retried on a
			// later frame
			s.loader.LoadTerrain(seg, false)
		}
		return
	}

	switch node.state {
	case StateFading:
		node.state = StateRendering
	case StateWalking:
		node.state = StateRendering
	}
}

// Takes a node out of the visible set: out of frustum or demoted under a
// collapsing parent. Transient segment buffers are released and the in
// flight fetch, if any, is cancelled; the node itself stays allocated.
func (s *Strategy) suspend(node *QuadNode) {
	if node.hasChildren {
		for _, childID := range node.children {
			if child := s.arena.Get(childID); child != nil {
				s.suspend(child)
			}
		}
	}
	if node.state != StateNotRendering {
		node.state = StateNotRendering
	}
	if node.segment.IsLoading() {
		s.loader.CancelSegment(node.segment)
	}
	node.segment.ReleaseTransient()
}

// Lazily creates the four children of a node, in the fixed traversal
// order south-west, south-east, north-west, north-east
func (s *Strategy) ensureChildren(node *QuadNode) {
	if node.hasChildren {
		return
	}
	for i, childIndex := range node.index.Children() {
		node.children[i] = s.createNode(childIndex, node.id)
	}
	node.hasChildren = true
}

// Destroys the subtree below a node, cancelling pending fetches so their
// abort outcome discards the pending records without populating the cache
func (s *Strategy) destroyChildren(node *QuadNode) {
	for i, childID := range node.children {
		child := s.arena.Get(childID)
		if child != nil {
			if child.hasChildren {
				s.destroyChildren(child)
			}
			s.suspend(child)
			s.arena.Release(childID)
		}
		node.children[i] = InvalidNodeID
	}
	node.hasChildren = false
}

func (s *Strategy) createNode(index topology.TileIndex, parent NodeID) NodeID {
	id, node := s.arena.Alloc()
	node.index = index
	node.extent = s.topo.TileExtent(index)
	node.state = StateNotRendering
	node.parent = parent
	for i := range node.children {
		node.children[i] = InvalidNodeID
	}
	node.segment = &Segment{
		node:            node,
		projectedExtent: s.projectExtent(node.extent),
	}
	return id
}

// Projects a geographic extent into the internal projected reference
// system. Latitudes are clamped to the mercator band first so polar cap
// extents stay finite.
func (s *Strategy) projectExtent(extent *geometry.Extent) *geometry.Extent {
	clamped := geometry.NewExtent(
		extent.Xmin,
		clampLat(extent.Ymin),
		extent.Xmax,
		clampLat(extent.Ymax),
	)
	projected, err := s.converter.ConvertExtentSrid(geographicSrid, projectedSrid, clamped)
	if err != nil {
		glog.Warningf("projecting extent %+v: %v", *extent, err)
		return clamped
	}
	return projected
}

func clampLat(lat float64) float64 {
	if lat > topology.MercatorLimitLatitude {
		return topology.MercatorLimitLatitude
	}
	if lat < -topology.MercatorLimitLatitude {
		return -topology.MercatorLimitLatitude
	}
	return lat
}
