package pkg

import (
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/ecopia-map/globe_terrain/internal/converters"
	"github.com/ecopia-map/globe_terrain/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/globe_terrain/internal/elevation"
	"github.com/ecopia-map/globe_terrain/internal/fetch"
	"github.com/ecopia-map/globe_terrain/internal/frame"
	"github.com/ecopia-map/globe_terrain/internal/geoid"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/internal/locks"
	"github.com/ecopia-map/globe_terrain/internal/quadtree"
	"github.com/ecopia-map/globe_terrain/internal/session"
	"github.com/ecopia-map/globe_terrain/internal/topology"
	"github.com/ecopia-map/globe_terrain/tools"
)

// TerrainStreamer wires the surface partition, the elevation loader and
// the shared lock set into the engine one renderer session embeds.
//
// Everything except fetch I/O runs on a single cooperative update
// timeline: the embedder calls RunFrame once per frame from its render
// loop and calls every other method from that same timeline.
type TerrainStreamer struct {
	opts      *StreamerOptions
	session   *session.Session
	topo      *topology.Topology
	loop      *frame.Loop
	lockSet   *locks.LockSet
	converter converters.CoordinateConverter
	cache     *elevation.TileCache
	loader    *elevation.Loader
	strategy  *quadtree.Strategy
}

// Builds a streamer with the default wall clock and HTTP fetcher
func NewTerrainStreamer(opts *StreamerOptions) *TerrainStreamer {
	return NewTerrainStreamerWith(opts, clock.New(), fetch.NewHTTPFetcher(opts.FetchTimeout))
}

// Builds a streamer over an explicit clock and fetch primitive. Tests
// pass a mock clock and an in-memory fetcher.
func NewTerrainStreamerWith(opts *StreamerOptions, clk clock.Clock, fetcher fetch.Fetcher) *TerrainStreamer {
	var topo *topology.Topology
	if opts.PolarCaps {
		topo = topology.NewPolarTopology(opts.MaxZoom, opts.CapMaxZoom)
	} else {
		topo = topology.NewMercatorTopology(opts.MaxZoom)
	}

	var geoidLookup geoid.Lookup
	if opts.GeoidGridPath != "" {
		gridPath := opts.GeoidGridPath
		if !filepath.IsAbs(gridPath) {
			gridPath = filepath.Join(tools.GetRootFolder(), gridPath)
		}
		geoidLookup = geoid.NewGridLookup(gridPath)
	} else {
		geoidLookup = geoid.NewOffsetLookup(opts.GeoidOffset)
	}

	loop := frame.NewLoop(clk)
	lockSet := locks.NewLockSet()
	cache := elevation.NewTileCache()
	converter := proj4_coordinate_converter.NewProj4CoordinateConverter()

	loader := elevation.NewLoader(
		elevation.LoaderOptions{
			URLTemplate:          opts.URLTemplate,
			ResponseType:         opts.ResponseType,
			MaxZoom:              opts.MaxZoom,
			MaxConcurrentFetches: opts.MaxConcurrentFetches,
		},
		loop,
		fetcher,
		topo,
		cache,
		geoidLookup,
		lockSet,
	)

	return &TerrainStreamer{
		opts:      opts,
		session:   session.NewSession(),
		topo:      topo,
		loop:      loop,
		lockSet:   lockSet,
		converter: converter,
		cache:     cache,
		loader:    loader,
		strategy:  quadtree.NewStrategy(topo, loader, converter, opts.SubdivisionThreshold),
	}
}

// Returns the renderer session scope of the streamer
func (s *TerrainStreamer) Session() *session.Session {
	return s.session
}

// Returns the lock set shared with the navigation collaborator
func (s *TerrainStreamer) Locks() *locks.LockSet {
	return s.lockSet
}

// Returns the surface partition
func (s *TerrainStreamer) Topology() *topology.Topology {
	return s.topo
}

// Returns the shared elevation tile cache
func (s *TerrainStreamer) Cache() *elevation.TileCache {
	return s.cache
}

// Returns the quadtree strategy driving the per frame traversal
func (s *TerrainStreamer) Strategy() *quadtree.Strategy {
	return s.strategy
}

// Converts an ellipsoidal altitude hint into the requested vertical datum
// and hands it to the callback, fetching elevation data as needed. Never
// blocks: a callback waiting on a fetch runs on a later frame.
func (s *TerrainStreamer) GetHeightAsync(mode elevation.DatumMode, p geometry.GeoPoint, cb elevation.HeightCallback, ellipsoidalAltitudeHint float64) {
	s.loader.RequestHeight(mode, p, ellipsoidalAltitudeHint, cb)
}

// Requests the bulk tile load backing a segment, see elevation.Loader
func (s *TerrainStreamer) LoadTerrain(seg elevation.Segment, forcePriority bool) {
	s.loader.LoadTerrain(seg, forcePriority)
}

// Cancels every in-flight and queued fetch
func (s *TerrainStreamer) AbortLoading() {
	s.loader.AbortLoading()
}

// Registers a listener fired per successfully applied tile
func (s *TerrainStreamer) OnLoad(fn func(elevation.LoadEvent)) {
	s.loader.OnLoad(fn)
}

// Registers a listener fired when the pending fetch queue drains
func (s *TerrainStreamer) OnLoadEnd(fn func()) {
	s.loader.OnLoadEnd(fn)
}

// Runs one frame: quadtree traversal over the view, then the fetch queue
// pump, then the continuations of fetches resolved on earlier frames.
// Traversal always completes before any continuation runs, and a fetch
// resolving mid frame waits for the next one, so tile mutation never
// tears the frame. Returns the terminal tile set of the traversal. A nil
// view skips traversal but still pumps the loader, which point-query only
// embedders rely on.
func (s *TerrainStreamer) RunFrame(view quadtree.View) []topology.TileIndex {
	var terminals []topology.TileIndex
	s.loop.RunFrame(func() {
		if view != nil {
			terminals = s.strategy.Update(view)
		}
		s.loader.Update()
	})
	return terminals
}

// Releases projection resources. The streamer must not be used after.
func (s *TerrainStreamer) Cleanup() {
	s.converter.Cleanup()
}
