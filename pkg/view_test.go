package pkg

import (
	"testing"

	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/stretchr/testify/require"
)

func TestPointViewIntersects(t *testing.T) {
	view := NewPointView(geometry.GeoPoint{Lon: 7.0, Lat: 50.5}, 10_000)

	require.True(t, view.Intersects(geometry.NewExtent(6, 50, 7, 51)))
	require.True(t, view.Intersects(geometry.NewExtent(-180, -90, 180, 90)))
	require.False(t, view.Intersects(geometry.NewExtent(60, 10, 61, 11)))
}

func TestScreenSpaceErrorShrinksWithAltitude(t *testing.T) {
	extent := geometry.NewExtent(7.0, 50.0, 8.0, 51.0)

	low := NewPointView(extent.Center(), 5_000)
	high := NewPointView(extent.Center(), 500_000)

	require.Greater(t, low.ScreenSpaceError(extent), high.ScreenSpaceError(extent))
}

func TestScreenSpaceErrorShrinksWithDistance(t *testing.T) {
	view := NewPointView(geometry.GeoPoint{Lon: 7.0, Lat: 50.5}, 10_000)

	near := geometry.NewExtent(7.0, 50.0, 8.0, 51.0)
	far := geometry.NewExtent(17.0, 50.0, 18.0, 51.0)

	require.Greater(t, view.ScreenSpaceError(near), view.ScreenSpaceError(far))
}

func TestScreenSpaceErrorShrinksWithSubdivision(t *testing.T) {
	view := NewPointView(geometry.GeoPoint{Lon: 7.5, Lat: 50.5}, 100_000)

	parent := geometry.NewExtent(7.0, 50.0, 8.0, 51.0)
	child := geometry.NewExtent(7.0, 50.0, 7.5, 50.5)

	require.Greater(t, view.ScreenSpaceError(parent), view.ScreenSpaceError(child))
}
