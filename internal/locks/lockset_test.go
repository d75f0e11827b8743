package locks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockIsFreeIffHolderSetEmpty(t *testing.T) {
	lock := NewNamedLock("terrain")
	require.True(t, lock.IsFree())
	require.Equal(t, 0, lock.HolderCount())

	lock.Lock("navigation")
	require.False(t, lock.IsFree())
	require.Equal(t, 1, lock.HolderCount())

	lock.Free("navigation")
	require.True(t, lock.IsFree())
	require.Equal(t, 0, lock.HolderCount())
}

func TestDistinctHoldersEngageConcurrently(t *testing.T) {
	lock := NewNamedLock("terrain")

	lock.Lock("navigation-inertia")
	lock.Lock("elevation-loader")
	lock.Lock("normal-map-regen")
	require.Equal(t, 3, lock.HolderCount())

	lock.Free("elevation-loader")
	require.False(t, lock.IsFree())

	lock.Free("navigation-inertia")
	require.False(t, lock.IsFree())

	lock.Free("normal-map-regen")
	require.True(t, lock.IsFree())
}

func TestRepeatedKeyIsReferenceCounted(t *testing.T) {
	lock := NewNamedLock("terrain")

	// locking the same key twice needs two frees
	lock.Lock("navigation")
	lock.Lock("navigation")
	require.Equal(t, 1, lock.HolderCount())

	lock.Free("navigation")
	require.False(t, lock.IsFree())

	lock.Free("navigation")
	require.True(t, lock.IsFree())
}

func TestFreeUnknownKeyIsNoOp(t *testing.T) {
	lock := NewNamedLock("terrain")

	lock.Free("never-locked")
	require.True(t, lock.IsFree())

	lock.Lock("navigation")
	lock.Free("someone-else")
	require.False(t, lock.IsFree())
}

func TestFreeAllDropsEveryReference(t *testing.T) {
	lock := NewNamedLock("terrain")

	lock.Lock("navigation")
	lock.Lock("navigation")
	lock.Lock("navigation")
	lock.FreeAll("navigation")
	require.True(t, lock.IsFree())
}

func TestLockSetCreatesLazilyAndReturnsSameLock(t *testing.T) {
	set := NewLockSet()

	terrain := set.Get(TerrainLock)
	require.NotNil(t, terrain)
	require.Equal(t, TerrainLock, terrain.Name())

	terrain.Lock("x")
	require.Same(t, terrain, set.Get(TerrainLock))
	require.False(t, set.Get(TerrainLock).IsFree())

	other := set.Get("normal-maps")
	require.NotSame(t, terrain, other)
	require.True(t, other.IsFree())
}
