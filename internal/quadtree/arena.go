package quadtree

// NodeID addresses a node inside the arena. The parent/child graph is
// cyclic, so nodes reference each other through stable arena indices
// instead of direct pointers. The generation counter makes handles to
// released slots detectably stale.
type NodeID struct {
	index      int32
	generation uint32
}

// InvalidNodeID is the null node reference
var InvalidNodeID = NodeID{index: -1}

// Returns true if the id references some slot (which may still have been
// released since, see Arena.Get)
func (id NodeID) IsValid() bool {
	return id.index >= 0
}

type arenaSlot struct {
	node       QuadNode
	generation uint32
	occupied   bool
}

// Arena owns the storage of every quadtree node of one strategy. Slots
// are recycled through a free list; a recycled slot bumps its generation
// so stale NodeIDs resolve to nil instead of the new occupant. Slots are
// heap allocated once so node addresses stay stable across growth.
type Arena struct {
	slots []*arenaSlot
	free  []int32
	count int
}

func NewArena() *Arena {
	return &Arena{}
}

// Allocates a slot and returns the id and the zeroed node in it
func (a *Arena) Alloc() (NodeID, *QuadNode) {
	var index int32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, &arenaSlot{})
		index = int32(len(a.slots) - 1)
	}

	slot := a.slots[index]
	slot.node = QuadNode{}
	slot.occupied = true
	a.count++

	id := NodeID{index: index, generation: slot.generation}
	slot.node.id = id
	return id, &slot.node
}

// Resolves an id to its node. Returns nil for the invalid id, for a
// released slot and for a stale generation.
func (a *Arena) Get(id NodeID) *QuadNode {
	if id.index < 0 || int(id.index) >= len(a.slots) {
		return nil
	}
	slot := a.slots[id.index]
	if !slot.occupied || slot.generation != id.generation {
		return nil
	}
	return &slot.node
}

// Releases the slot behind the id, making every handle to it stale
func (a *Arena) Release(id NodeID) {
	node := a.Get(id)
	if node == nil {
		return
	}
	slot := a.slots[id.index]
	slot.occupied = false
	slot.generation++
	slot.node = QuadNode{}
	a.free = append(a.free, id.index)
	a.count--
}

// Returns the number of live nodes
func (a *Arena) Len() int {
	return a.count
}
