package elevation

import (
	"context"

	"github.com/ecopia-map/globe_terrain/internal/fetch"
	"github.com/ecopia-map/globe_terrain/internal/frame"
	"github.com/ecopia-map/globe_terrain/internal/geoid"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/internal/locks"
	"github.com/ecopia-map/globe_terrain/internal/topology"
	"github.com/golang/glog"
)

// DatumMode selects the vertical reference the converted altitude is
// expressed against
type DatumMode int

const (
	DatumEllipsoid DatumMode = iota
	DatumMSL
	DatumGround
)

func (m DatumMode) String() string {
	switch m {
	case DatumEllipsoid:
		return "ellipsoid"
	case DatumMSL:
		return "msl"
	case DatumGround:
		return "ground"
	}
	return "unknown"
}

// HeightCallback receives the converted altitude of a height query
type HeightCallback func(altitude float64)

// Segment is the per node render payload the loader fills. Implemented by
// the quadtree; the loader only needs the tile key, the staleness check
// and the two state transitions.
type Segment interface {
	// The tile index the segment renders
	TileIndex() topology.TileIndex
	// Checked lazily at dequeue time: false means the request went stale
	// (node no longer visible or renderable) and is dropped unfetched
	Eligible() bool
	// Marks whether a load is underway for the segment
	SetLoading(loading bool)
	// Hands the decoded elevations to the segment
	ApplyElevation(tile *ElevationTile)
}

// Payload of the load event, fired per successfully applied tile
type LoadEvent struct {
	Tile    *ElevationTile
	Segment Segment
}

type LoaderOptions struct {
	// Tile URL template with {x} {y} {z} placeholders; polar cap groups
	// get the group name appended as a path segment
	URLTemplate string
	// How tile payloads are fetched and decoded
	ResponseType fetch.ResponseType
	// Zoom level point queries sample the terrain at
	MaxZoom int
	// Upper bound on concurrent in-flight fetches; excess requests queue
	// in FIFO order
	MaxConcurrentFetches int
}

// Loader orchestrates asynchronous elevation fetches and vertical datum
// conversion. All of its state is mutated on the cooperative update
// timeline; fetches run out of band and deliver their result back through
// frame.Loop.Post.
type Loader struct {
	opts    LoaderOptions
	loop    *frame.Loop
	fetcher fetch.Fetcher
	topo    *topology.Topology
	cache   *TileCache
	geoid   geoid.Lookup
	terrain *locks.NamedLock

	queue    []*PendingFetch
	inflight int
	busy     bool

	onLoad    []func(LoadEvent)
	onLoadEnd []func()
}

// Builds a Loader wired to the given collaborators
func NewLoader(
	opts LoaderOptions,
	loop *frame.Loop,
	fetcher fetch.Fetcher,
	topo *topology.Topology,
	cache *TileCache,
	geoidLookup geoid.Lookup,
	lockSet *locks.LockSet,
) *Loader {
	if opts.MaxConcurrentFetches <= 0 {
		opts.MaxConcurrentFetches = 4
	}
	return &Loader{
		opts:    opts,
		loop:    loop,
		fetcher: fetcher,
		topo:    topo,
		cache:   cache,
		geoid:   geoidLookup,
		terrain: lockSet.Get(locks.TerrainLock),
	}
}

// Returns the shared tile cache
func (l *Loader) Cache() *TileCache {
	return l.cache
}

// Registers a listener for the load event
func (l *Loader) OnLoad(fn func(LoadEvent)) {
	l.onLoad = append(l.onLoad, fn)
}

// Registers a listener for the loadend event, fired when the pending
// queue drains
func (l *Loader) OnLoadEnd(fn func()) {
	l.onLoadEnd = append(l.onLoadEnd, fn)
}

// Converts an ellipsoidal altitude into the requested datum and hands it
// to the callback. Ellipsoid and MSL modes resolve synchronously; ground
// mode may register the callback as a continuation of a tile fetch and
// return without blocking.
func (l *Loader) RequestHeight(mode DatumMode, p geometry.GeoPoint, altitude float64, cb HeightCallback) {
	switch mode {
	case DatumEllipsoid:
		cb(altitude)

	case DatumMSL:
		cb(altitude - l.geoid.GetHeightAt(p))

	case DatumGround:
		l.requestGroundHeight(p, altitude, cb)

	default:
		glog.Errorf("unknown datum mode %d, returning ellipsoidal altitude", mode)
		cb(altitude)
	}
}

func (l *Loader) requestGroundHeight(p geometry.GeoPoint, altitude float64, cb HeightCallback) {
	undulation := l.geoid.GetHeightAt(p)
	index := l.topo.LonLatToTileXY(p, l.opts.MaxZoom, l.topo.GroupFor(p))

	if tile, ok := l.cache.Get(index); ok {
		cacheHits.Inc()
		cb(altitude - (l.groundTerm(tile, p) + undulation))
		return
	}
	cacheMisses.Inc()

	rec, ok := l.cache.Pending(index)
	if !ok {
		rec = &PendingFetch{Index: index}
		l.cache.AddPending(rec)
		l.enqueue(rec, false)
	}
	rec.continuations = append(rec.continuations, pendingContinuation{
		point:      p,
		altitude:   altitude,
		undulation: undulation,
		callback:   cb,
	})
}

// Interpolates the ground height from a cached tile. The no-data sentinel
// and an extent/rounding mismatch both degrade to a zero ground term, the
// latter with a data integrity warning.
func (l *Loader) groundTerm(tile *ElevationTile, p geometry.GeoPoint) float64 {
	if tile.NoData {
		return 0
	}
	height, err := tile.HeightAt(p)
	if err != nil {
		glog.Warningf("datum lookup inconsistency at (%f, %f) on tile %s: %v", p.Lon, p.Lat, tile.Index, err)
		return 0
	}
	return height
}

// Requests the bulk tile load backing a segment. Rejected immediately when
// the terrain lock is engaged: the segment is marked not-loading and the
// caller retries on a later frame. Accepted requests join the FIFO queue;
// forcePriority requests jump to its front but ordering is otherwise never
// rearranged.
func (l *Loader) LoadTerrain(seg Segment, forcePriority bool) {
	index := seg.TileIndex()

	if tile, ok := l.cache.Get(index); ok {
		cacheHits.Inc()
		seg.SetLoading(false)
		seg.ApplyElevation(tile)
		if !tile.NoData {
			l.fireLoad(LoadEvent{Tile: tile, Segment: seg})
		}
		return
	}
	cacheMisses.Inc()

	if !l.terrain.IsFree() {
		// lock contention is flow control, not an error
		rejectedLoads.WithLabelValues("lock_contention").Inc()
		seg.SetLoading(false)
		return
	}

	seg.SetLoading(true)

	if rec, ok := l.cache.Pending(index); ok {
		rec.segments = append(rec.segments, seg)
		if forcePriority && !rec.started {
			l.moveToFront(rec)
		}
		return
	}

	rec := &PendingFetch{Index: index, segments: []Segment{seg}}
	l.cache.AddPending(rec)
	l.enqueue(rec, forcePriority)
}

// Drops a segment from whatever pending fetch references it. When nothing
// else waits on that fetch it is cancelled outright (abort outcome) and
// the pending record discarded, so a later request starts fresh.
func (l *Loader) CancelSegment(seg Segment) {
	rec, ok := l.cache.Pending(seg.TileIndex())
	if !ok {
		return
	}

	kept := rec.segments[:0]
	for _, s := range rec.segments {
		if s != seg {
			kept = append(kept, s)
		}
	}
	rec.segments = kept

	if len(rec.segments) == 0 && len(rec.continuations) == 0 {
		l.discard(rec)
	}
}

// Cancels every in-flight and queued fetch
func (l *Loader) AbortLoading() {
	for _, rec := range l.queue {
		l.releaseSegments(rec)
		l.cache.RemovePending(rec.Index)
	}
	l.queue = nil

	for _, rec := range l.cache.pending {
		l.releaseSegments(rec)
		if rec.cancel != nil {
			rec.cancel()
		}
		l.cache.RemovePending(rec.Index)
	}

	l.maybeFireLoadEnd()
}

// Pumps the fetch queue. Called once per frame after traversal: starts
// queued fetches while capacity remains and the terrain lock is free,
// dropping requests that went stale since they were queued.
func (l *Loader) Update() {
	for l.inflight < l.opts.MaxConcurrentFetches && len(l.queue) > 0 && l.terrain.IsFree() {
		rec := l.queue[0]
		l.queue = l.queue[1:]

		// filter, never reprioritize
		kept := rec.segments[:0]
		for _, seg := range rec.segments {
			if seg.Eligible() {
				kept = append(kept, seg)
			} else {
				seg.SetLoading(false)
				rejectedLoads.WithLabelValues("stale").Inc()
			}
		}
		rec.segments = kept

		if len(rec.segments) == 0 && len(rec.continuations) == 0 {
			l.cache.RemovePending(rec.Index)
			continue
		}

		l.start(rec)
	}

	l.maybeFireLoadEnd()
}

func (l *Loader) enqueue(rec *PendingFetch, front bool) {
	l.busy = true
	if front {
		l.queue = append([]*PendingFetch{rec}, l.queue...)
		return
	}
	l.queue = append(l.queue, rec)
}

func (l *Loader) moveToFront(rec *PendingFetch) {
	for i, queued := range l.queue {
		if queued == rec {
			copy(l.queue[1:i+1], l.queue[:i])
			l.queue[0] = rec
			return
		}
	}
}

func (l *Loader) start(rec *PendingFetch) {
	ctx, cancel := context.WithCancel(context.Background())
	rec.cancel = cancel
	rec.started = true
	l.inflight++
	inflightFetches.Set(float64(l.inflight))

	url := topology.BuildTileURL(l.opts.URLTemplate, rec.Index)
	glog.V(2).Infof("fetching tile %s from %s", rec.Index, url)

	go func() {
		result := l.fetcher.Fetch(ctx, url, l.opts.ResponseType)
		l.loop.Post(func() {
			l.resolve(rec, result)
		})
	}()
}

// Applies a resolved fetch on the update timeline. Resolution runs after
// the traversal of the frame it lands on, never within the frame that
// issued the fetch.
func (l *Loader) resolve(rec *PendingFetch, result fetch.Result) {
	l.inflight--
	inflightFetches.Set(float64(l.inflight))
	fetchOutcomes.WithLabelValues(result.Status.String()).Inc()

	current, ok := l.cache.Pending(rec.Index)
	if !ok || current != rec {
		// the record was discarded while the fetch was in flight; the
		// abort outcome caches nothing so a later request starts fresh
		l.maybeFireLoadEnd()
		return
	}

	switch result.Status {
	case fetch.StatusReady:
		extent := l.topo.TileExtent(rec.Index)
		tile, err := DecodeElevationTile(rec.Index, extent, l.opts.ResponseType, result.Data)
		if err != nil {
			glog.Warningf("tile %s: %v", rec.Index, err)
			l.settleError(rec)
			break
		}
		l.cache.Put(tile)
		l.cache.RemovePending(rec.Index)
		l.settleReady(rec, tile)

	case fetch.StatusError:
		l.settleError(rec)

	case fetch.StatusAbort:
		l.cache.RemovePending(rec.Index)
		l.releaseSegments(rec)
	}

	l.maybeFireLoadEnd()
}

func (l *Loader) settleReady(rec *PendingFetch, tile *ElevationTile) {
	for _, c := range rec.continuations {
		c.callback(c.altitude - (l.groundTerm(tile, c.point) + c.undulation))
	}
	for _, seg := range rec.segments {
		seg.SetLoading(false)
		if !seg.Eligible() {
			continue
		}
		seg.ApplyElevation(tile)
		l.fireLoad(LoadEvent{Tile: tile, Segment: seg})
	}
}

// A failed fetch caches the no-data sentinel so a permanently failing
// tile is not retried indefinitely. Continuations resolve with the ground
// term omitted.
func (l *Loader) settleError(rec *PendingFetch) {
	sentinel := NewNoDataTile(rec.Index, l.topo.TileExtent(rec.Index))
	l.cache.Put(sentinel)
	l.cache.RemovePending(rec.Index)

	for _, c := range rec.continuations {
		c.callback(c.altitude - c.undulation)
	}
	l.releaseSegments(rec)
}

func (l *Loader) discard(rec *PendingFetch) {
	if rec.started {
		if rec.cancel != nil {
			rec.cancel()
		}
	} else {
		for i, queued := range l.queue {
			if queued == rec {
				l.queue = append(l.queue[:i], l.queue[i+1:]...)
				break
			}
		}
	}
	l.cache.RemovePending(rec.Index)
}

func (l *Loader) releaseSegments(rec *PendingFetch) {
	for _, seg := range rec.segments {
		seg.SetLoading(false)
	}
}

func (l *Loader) fireLoad(ev LoadEvent) {
	for _, fn := range l.onLoad {
		fn(ev)
	}
}

func (l *Loader) maybeFireLoadEnd() {
	if !l.busy || len(l.queue) > 0 || l.inflight > 0 || l.cache.PendingCount() > 0 {
		return
	}
	l.busy = false
	for _, fn := range l.onLoadEnd {
		fn()
	}
}
