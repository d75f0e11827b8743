package pkg

import (
	"github.com/ecopia-map/globe_terrain/internal/locks"
	"github.com/google/uuid"
)

// InertiaGuard is the glue the navigation collaborator uses to suppress
// terrain loads during camera inertia. It holds the terrain lock under
// its own key while the per-frame displacement, normalized by altitude,
// stays at or above the threshold, and frees it once motion settles.
type InertiaGuard struct {
	lock      *locks.NamedLock
	key       string
	threshold float64
	held      bool
}

func NewInertiaGuard(lockSet *locks.LockSet, threshold float64) *InertiaGuard {
	return &InertiaGuard{
		lock:      lockSet.Get(locks.TerrainLock),
		key:       "inertia-" + uuid.NewString(),
		threshold: threshold,
	}
}

// Feeds one frame of camera motion: displacement in meters and the eye
// altitude the displacement is normalized by
func (g *InertiaGuard) Track(displacement, altitude float64) {
	if altitude < 1 {
		altitude = 1
	}
	moving := displacement/altitude >= g.threshold

	if moving && !g.held {
		g.lock.Lock(g.key)
		g.held = true
	} else if !moving && g.held {
		g.lock.Free(g.key)
		g.held = false
	}
}

// Returns true while the guard holds the terrain lock
func (g *InertiaGuard) Engaged() bool {
	return g.held
}
