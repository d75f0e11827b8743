package pkg

import (
	"testing"

	"github.com/ecopia-map/globe_terrain/internal/locks"
	"github.com/stretchr/testify/require"
)

func TestInertiaGuardEngagesAndFrees(t *testing.T) {
	lockSet := locks.NewLockSet()
	terrain := lockSet.Get(locks.TerrainLock)
	guard := NewInertiaGuard(lockSet, 0.01)

	require.False(t, guard.Engaged())
	require.True(t, terrain.IsFree())

	guard.Track(5_000, 100_000)
	require.True(t, guard.Engaged())
	require.False(t, terrain.IsFree())

	guard.Track(100, 100_000)
	require.False(t, guard.Engaged())
	require.True(t, terrain.IsFree())
}

func TestInertiaGuardNormalizesByAltitude(t *testing.T) {
	lockSet := locks.NewLockSet()
	guard := NewInertiaGuard(lockSet, 0.01)

	// the same displacement means fast motion near the ground and a crawl
	// from orbit
	guard.Track(500, 10_000)
	require.True(t, guard.Engaged())

	guard.Track(500, 10_000_000)
	require.False(t, guard.Engaged())
}

func TestInertiaGuardTrackIsIdempotentPerState(t *testing.T) {
	lockSet := locks.NewLockSet()
	terrain := lockSet.Get(locks.TerrainLock)
	guard := NewInertiaGuard(lockSet, 0.01)

	for i := 0; i < 10; i++ {
		guard.Track(5_000, 100_000)
	}
	require.Equal(t, 1, terrain.HolderCount())

	guard.Track(0, 100_000)
	require.True(t, terrain.IsFree())
}

func TestIndependentGuardsHoldIndependentKeys(t *testing.T) {
	lockSet := locks.NewLockSet()
	terrain := lockSet.Get(locks.TerrainLock)

	a := NewInertiaGuard(lockSet, 0.01)
	b := NewInertiaGuard(lockSet, 0.01)
	a.Track(5_000, 100_000)
	b.Track(5_000, 100_000)
	require.Equal(t, 2, terrain.HolderCount())

	a.Track(0, 100_000)
	require.False(t, terrain.IsFree())

	b.Track(0, 100_000)
	require.True(t, terrain.IsFree())
}

func TestInertiaGuardClampsTinyAltitudes(t *testing.T) {
	guard := NewInertiaGuard(locks.NewLockSet(), 0.5)

	guard.Track(1, 0)
	require.True(t, guard.Engaged())
}
