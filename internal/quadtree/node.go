package quadtree

import (
	"github.com/ecopia-map/globe_terrain/internal/elevation"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/internal/topology"
)

// RenderState is the per node render state machine. Nodes start in
// NotRendering, are Walking while the traversal considers them, Rendering
// once they are terminal with resident data and Fading on the frame their
// data first arrives.
type RenderState int

const (
	StateNotRendering RenderState = iota
	StateWalking
	StateRendering
	StateFading
)

func (s RenderState) String() string {
	switch s {
	case StateNotRendering:
		return "not-rendering"
	case StateWalking:
		return "walking"
	case StateRendering:
		return "rendering"
	case StateFading:
		return "fading"
	}
	return "unknown"
}

// Models one tile of the surface partition. A node owns either zero or
// exactly four children; its extent is the exact union of theirs. The
// parent reference is a non owning arena id.
type QuadNode struct {
	id     NodeID
	index  topology.TileIndex
	extent *geometry.Extent
	state  RenderState

	parent      NodeID
	children    [4]NodeID // south-west, south-east, north-west, north-east
	hasChildren bool

	segment *Segment
}

// Returns the arena id of the node
func (n *QuadNode) ID() NodeID {
	return n.id
}

// Returns the tile index identifying the node
func (n *QuadNode) TileIndex() topology.TileIndex {
	return n.index
}

// Returns the geographic extent of the node's tile
func (n *QuadNode) Extent() *geometry.Extent {
	return n.extent
}

// Returns the current render state
func (n *QuadNode) State() RenderState {
	return n.state
}

// Returns the id of the parent node, InvalidNodeID for roots
func (n *QuadNode) Parent() NodeID {
	return n.parent
}

// Returns the ids of the four children in traversal order. Only
// meaningful when HasChildren is true.
func (n *QuadNode) Children() [4]NodeID {
	return n.children
}

func (n *QuadNode) HasChildren() bool {
	return n.hasChildren
}

func (n *QuadNode) IsRoot() bool {
	return !n.parent.IsValid()
}

// Returns the segment owned by the node
func (n *QuadNode) Segment() *Segment {
	return n.segment
}

// Segment is the render payload owned by exactly one QuadNode. It
// references the shared cached elevation grid and carries its own
// projected extent; releasing a segment's transient state never touches
// the cache.
type Segment struct {
	node            *QuadNode
	projectedExtent *geometry.Extent
	loading         bool
	elevations      *elevation.ElevationTile
}

// Returns the tile index the segment renders
func (s *Segment) TileIndex() topology.TileIndex {
	return s.node.index
}

// Returns the extent of the segment in the projected reference system
func (s *Segment) ProjectedExtent() *geometry.Extent {
	return s.projectedExtent
}

// Reports whether the owning node can still use fetched data. Evaluated
// lazily at fetch dequeue time so stale requests are dropped without
// consuming bandwidth.
func (s *Segment) Eligible() bool {
	return s.node.state != StateNotRendering
}

func (s *Segment) SetLoading(loading bool) {
	s.loading = loading
}

func (s *Segment) IsLoading() bool {
	return s.loading
}

// Hands the decoded elevations to the segment. The node fades in on the
// frame its data first arrives.
func (s *Segment) ApplyElevation(tile *elevation.ElevationTile) {
	s.elevations = tile
	if s.node.state == StateWalking || s.node.state == StateRendering {
		s.node.state = StateFading
	}
}

// Returns true once elevation data (possibly the no-data sentinel) is
// resident on the segment
func (s *Segment) HasData() bool {
	return s.elevations != nil
}

// Returns the resident elevation tile, nil before data arrives
func (s *Segment) Elevations() *elevation.ElevationTile {
	return s.elevations
}

// Releases the transient per segment buffers. The shared cached
// ElevationTile is independent and untouched.
func (s *Segment) ReleaseTransient() {
	s.elevations = nil
	s.loading = false
}
