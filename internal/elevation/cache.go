package elevation

import (
	"context"

	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/internal/topology"
)

// PendingFetch is the in-flight record of one tile fetch. It collects
// every consumer that arrived while the fetch was pending: point query
// continuations and bulk segment loads alike. One record exists per tile
// index, so a second request issued before the first resolves reuses it
// and never spawns a second fetch.
type PendingFetch struct {
	Index         topology.TileIndex
	cancel        context.CancelFunc
	started       bool
	continuations []pendingContinuation
	segments      []Segment
}

type pendingContinuation struct {
	point      geometry.GeoPoint
	altitude   float64
	undulation float64
	callback   HeightCallback
}

// TileCache is the keyed store of decoded elevation grids plus the fetch
// dedup table, shared by all call paths. Mutated only on the cooperative
// update timeline, so it carries no locking.
type TileCache struct {
	tiles   map[topology.TileIndex]*ElevationTile
	pending map[topology.TileIndex]*PendingFetch
}

func NewTileCache() *TileCache {
	return &TileCache{
		tiles:   make(map[topology.TileIndex]*ElevationTile),
		pending: make(map[topology.TileIndex]*PendingFetch),
	}
}

// Returns the cached tile for the index, which may be the no-data sentinel
func (c *TileCache) Get(index topology.TileIndex) (*ElevationTile, bool) {
	tile, ok := c.tiles[index]
	return tile, ok
}

// Stores a decoded tile. An existing entry is replaced wholesale.
func (c *TileCache) Put(tile *ElevationTile) {
	c.tiles[tile.Index] = tile
	cacheSize.Set(float64(len(c.tiles)))
}

// Returns the number of cached tiles, no-data sentinels included
func (c *TileCache) Size() int {
	return len(c.tiles)
}

// Returns the pending record for the index, if a fetch is in flight or
// queued for it
func (c *TileCache) Pending(index topology.TileIndex) (*PendingFetch, bool) {
	rec, ok := c.pending[index]
	return rec, ok
}

// Registers a new pending record for the index
func (c *TileCache) AddPending(rec *PendingFetch) {
	c.pending[rec.Index] = rec
	pendingFetches.Set(float64(len(c.pending)))
}

// Discards the pending record for the index without touching the tile
// store. Used on the abort path so a later request starts fresh.
func (c *TileCache) RemovePending(index topology.TileIndex) {
	delete(c.pending, index)
	pendingFetches.Set(float64(len(c.pending)))
}

// Returns the number of pending records, queued and in flight
func (c *TileCache) PendingCount() int {
	return len(c.pending)
}
