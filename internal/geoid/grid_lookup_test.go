package geoid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/stretchr/testify/require"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geoid.grd")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGridLookupInterpolates(t *testing.T) {
	// 3x3 grid over lon 0..2, lat 0..2, step 1, northernmost row first
	path := writeGrid(t, `0 0 2 2 1
10 10 10
20 20 20
30 30 30
`)

	lookup := NewGridLookup(path)

	// exact samples
	require.InDelta(t, 10, lookup.GetHeightAt(geometry.GeoPoint{Lon: 1, Lat: 2}), 1e-9)
	require.InDelta(t, 30, lookup.GetHeightAt(geometry.GeoPoint{Lon: 0, Lat: 0}), 1e-9)

	// halfway between the 10 and 20 rows
	require.InDelta(t, 15, lookup.GetHeightAt(geometry.GeoPoint{Lon: 0.5, Lat: 1.5}), 1e-9)
}

func TestGridLookupIsLazyAndIdempotent(t *testing.T) {
	path := writeGrid(t, `0 0 1 1 1
1.5 1.5
1.5 1.5
`)

	lookup := NewGridLookup(path)
	p := geometry.GeoPoint{Lon: 0.5, Lat: 0.5}

	first := lookup.GetHeightAt(p)
	require.InDelta(t, 1.5, first, 1e-9)

	// the backing file is gone, the loaded grid keeps answering
	require.NoError(t, os.Remove(path))
	require.Equal(t, first, lookup.GetHeightAt(p))
}

func TestGridLookupOutsideCoverage(t *testing.T) {
	path := writeGrid(t, `0 0 1 1 1
7 7
7 7
`)

	lookup := NewGridLookup(path)
	require.Equal(t, 0.0, lookup.GetHeightAt(geometry.GeoPoint{Lon: 50, Lat: 50}))
}

func TestGridLookupDegradesToZero(t *testing.T) {
	lookup := NewGridLookup("/nonexistent/geoid.grd")
	require.Equal(t, 0.0, lookup.GetHeightAt(geometry.GeoPoint{Lon: 7, Lat: 50.5}))

	malformed := NewGridLookup(writeGrid(t, "not a header\n"))
	require.Equal(t, 0.0, malformed.GetHeightAt(geometry.GeoPoint{Lon: 7, Lat: 50.5}))

	truncated := NewGridLookup(writeGrid(t, "0 0 2 2 1\n1 2 3\n"))
	require.Equal(t, 0.0, truncated.GetHeightAt(geometry.GeoPoint{Lon: 1, Lat: 1}))
}

func TestOffsetLookup(t *testing.T) {
	lookup := NewOffsetLookup(47.3)
	require.Equal(t, 47.3, lookup.GetHeightAt(geometry.GeoPoint{Lon: 7, Lat: 50.5}))
	require.Equal(t, 47.3, lookup.GetHeightAt(geometry.GeoPoint{Lon: -120, Lat: -30}))
}
