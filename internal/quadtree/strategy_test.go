package quadtree

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ecopia-map/globe_terrain/internal/elevation"
	"github.com/ecopia-map/globe_terrain/internal/fetch"
	"github.com/ecopia-map/globe_terrain/internal/frame"
	"github.com/ecopia-map/globe_terrain/internal/geoid"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/internal/locks"
	"github.com/ecopia-map/globe_terrain/internal/topology"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

// identityConverter keeps test extents in geographic coordinates so the
// traversal math stays inspectable
type identityConverter struct{}

func (identityConverter) ConvertCoordinateSrid(sourceSrid, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error) {
	return coord, nil
}

func (identityConverter) ConvertExtentSrid(sourceSrid, targetSrid int, extent *geometry.Extent) (*geometry.Extent, error) {
	return extent, nil
}

func (identityConverter) Cleanup() {}

// boxView subdivides every node wider than minTileWidth degrees inside
// its visible box
type boxView struct {
	visible      *geometry.Extent
	minTileWidth float64
}

func (v *boxView) Intersects(extent *geometry.Extent) bool {
	return extent.Intersects(v.visible)
}

func (v *boxView) ScreenSpaceError(extent *geometry.Extent) float64 {
	if extent.Width() > v.minTileWidth {
		return 1000
	}
	return 1
}

type countingFetcher struct {
	payload []byte

	mu    sync.Mutex
	count int
}

func (f *countingFetcher) Fetch(ctx context.Context, url string, responseType fetch.ResponseType) fetch.Result {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	return fetch.Result{Status: fetch.StatusReady, Data: f.payload}
}

func (f *countingFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

type strategyFixture struct {
	strategy *Strategy
	loader   *elevation.Loader
	frames   *frame.Loop
	cache    *elevation.TileCache
	fetcher  *countingFetcher
}

func newStrategyFixture(t *testing.T) *strategyFixture {
	t.Helper()

	payload, err := json.Marshal(make([]float64, elevation.GridSize*elevation.GridSize))
	require.NoError(t, err)
	fetcher := &countingFetcher{payload: payload}

	frames := frame.NewLoop(clock.New())
	topo := topology.NewMercatorTopology(4)
	cache := elevation.NewTileCache()
	loader := elevation.NewLoader(elevation.LoaderOptions{
		URLTemplate:  "https://terrain.test/{z}/{x}/{y}.json",
		ResponseType: fetch.ResponseTypeJSON,
		MaxZoom:      4,
	}, frames, fetcher, topo, cache, geoid.NewOffsetLookup(0), locks.NewLockSet())

	return &strategyFixture{
		strategy: NewStrategy(topo, loader, identityConverter{}, 64),
		loader:   loader,
		frames:   frames,
		cache:    cache,
		fetcher:  fetcher,
	}
}

func wholeWorldView(minTileWidth float64) *boxView {
	return &boxView{
		visible:      geometry.NewExtent(-180, -90, 180, 90),
		minTileWidth: minTileWidth,
	}
}

// Runs frames against a fixed view until the condition holds
func (f *strategyFixture) pump(t *testing.T, view View, cond func() bool) {
	t.Helper()
	for i := 0; i < 500; i++ {
		f.frames.RunFrame(func() {
			f.strategy.Update(view)
			f.loader.Update()
		})
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.FailNow(t, "strategy did not settle within the frame limit")
}

func TestStrategyStartsWithOneRootPerGroup(t *testing.T) {
	fx := newStrategyFixture(t)
	require.Len(t, fx.strategy.Roots(), 1)
	require.Equal(t, 1, fx.strategy.Arena().Len())

	root := fx.strategy.Arena().Get(fx.strategy.Roots()[0])
	require.NotNil(t, root)
	require.True(t, root.IsRoot())
	require.False(t, root.HasChildren())
	require.Equal(t, topology.TileIndex{Group: topology.MainBand}, root.TileIndex())
}

func TestTraversalIsDeterministic(t *testing.T) {
	fx := newStrategyFixture(t)
	// zoom 0 tiles are 360 degrees wide, zoom 2 tiles 90: the view settles
	// the whole world at zoom 2
	view := wholeWorldView(95)

	first := fx.strategy.Update(view)
	require.Len(t, first, 16)
	for _, index := range first {
		require.Equal(t, 2, index.Zoom)
	}

	second := fx.strategy.Update(view)
	require.Equal(t, first, second)
}

func TestChildrenCreatedLazily(t *testing.T) {
	fx := newStrategyFixture(t)

	fx.strategy.Update(wholeWorldView(95))
	// root, 4 children at zoom 1, 16 grandchildren at zoom 2
	require.Equal(t, 21, fx.strategy.Arena().Len())
}

func TestChildExtentsPartitionTheParent(t *testing.T) {
	fx := newStrategyFixture(t)
	fx.strategy.Update(wholeWorldView(185))

	arena := fx.strategy.Arena()
	root := arena.Get(fx.strategy.Roots()[0])
	require.True(t, root.HasChildren())

	// south-west, south-east, north-west, north-east
	wantCenters := []geometry.GeoPoint{
		{Lon: -90, Lat: -1},
		{Lon: 90, Lat: -1},
		{Lon: -90, Lat: 1},
		{Lon: 90, Lat: 1},
	}
	for i, childID := range root.Children() {
		child := arena.Get(childID)
		require.NotNil(t, child)
		center := child.Extent().Center()
		if wantCenters[i].Lat < 0 {
			require.Less(t, center.Lat, 0.0)
		} else {
			require.Greater(t, center.Lat, 0.0)
		}
		require.InDelta(t, wantCenters[i].Lon, center.Lon, 1e-9)
	}
}

func TestTerminalNodesRequestTheirTiles(t *testing.T) {
	fx := newStrategyFixture(t)
	view := wholeWorldView(95)

	fx.strategy.Update(view)
	require.Equal(t, 16, fx.cache.PendingCount())

	fx.pump(t, view, func() bool { return fx.cache.Size() == 16 })
	require.Equal(t, 16, fx.fetcher.calls())

	// once resident, repeated traversal issues no further fetches
	fx.strategy.Update(view)
	require.Equal(t, 16, fx.fetcher.calls())
	require.Equal(t, 0, fx.cache.PendingCount())
}

func TestNodeFadesInThenRenders(t *testing.T) {
	fx := newStrategyFixture(t)
	// never subdivide: the root itself is the terminal candidate
	view := wholeWorldView(400)

	fx.strategy.Update(view)
	root := fx.strategy.Arena().Get(fx.strategy.Roots()[0])
	require.Equal(t, StateWalking, root.State())
	require.True(t, root.Segment().IsLoading())

	fx.pump(t, view, func() bool { return root.Segment().HasData() })

	// data arrival fades the node in, the next traversal promotes it
	fx.strategy.Update(view)
	require.Equal(t, StateRendering, root.State())
	require.False(t, root.Segment().IsLoading())
}

func TestOutOfFrustumSuspendsSubtree(t *testing.T) {
	fx := newStrategyFixture(t)

	fx.strategy.Update(wholeWorldView(95))
	require.Equal(t, 16, fx.cache.PendingCount())

	// the camera moved away before anything was fetched
	nothing := &boxView{
		visible:      geometry.NewExtent(500, 500, 501, 501),
		minTileWidth: 95,
	}
	terminals := fx.strategy.Update(nothing)
	require.Empty(t, terminals)

	arena := fx.strategy.Arena()
	root := arena.Get(fx.strategy.Roots()[0])
	require.Equal(t, StateNotRendering, root.State())

	// suspended nodes stay allocated but drop transient state and fetches
	require.Equal(t, 21, arena.Len())
	require.Equal(t, 0, fx.cache.PendingCount())
	fx.frames.RunFrame(fx.loader.Update)
	require.Equal(t, 0, fx.fetcher.calls())
	for _, childID := range root.Children() {
		child := arena.Get(childID)
		require.Equal(t, StateNotRendering, child.State())
		require.False(t, child.Segment().IsLoading())
		require.False(t, child.Segment().HasData())
	}
}

func TestCollapseDestroysChildren(t *testing.T) {
	fx := newStrategyFixture(t)

	fx.strategy.Update(wholeWorldView(95))
	require.Equal(t, 21, fx.strategy.Arena().Len())

	// the error dropped below threshold everywhere: the root renders alone
	terminals := fx.strategy.Update(wholeWorldView(400))
	require.Len(t, terminals, 1)
	require.Equal(t, 0, terminals[0].Zoom)

	arena := fx.strategy.Arena()
	require.Equal(t, 1, arena.Len())

	root := arena.Get(fx.strategy.Roots()[0])
	require.False(t, root.HasChildren())
	for _, childID := range root.Children() {
		require.Nil(t, arena.Get(childID))
	}

	// destroyed descendants took their queued fetches with them
	require.Equal(t, 1, fx.cache.PendingCount())
}

func TestSuspendedNodeIsNotEligible(t *testing.T) {
	fx := newStrategyFixture(t)
	view := wholeWorldView(400)

	fx.strategy.Update(view)
	root := fx.strategy.Arena().Get(fx.strategy.Roots()[0])
	require.True(t, root.Segment().Eligible())

	nothing := &boxView{
		visible:      geometry.NewExtent(500, 500, 501, 501),
		minTileWidth: 400,
	}
	fx.strategy.Update(nothing)
	require.False(t, root.Segment().Eligible())
}

func TestRenderStateString(t *testing.T) {
	require.Equal(t, "not-rendering", StateNotRendering.String())
	require.Equal(t, "walking", StateWalking.String())
	require.Equal(t, "rendering", StateRendering.String())
	require.Equal(t, "fading", StateFading.String())
	require.Equal(t, "unknown", RenderState(9).String())
}
