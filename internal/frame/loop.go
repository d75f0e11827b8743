package frame

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Loop is the single cooperative update timeline. The per frame traversal
// and every tile mutation run on it, so state shared between the quadtree,
// the caches and the locks never needs its own synchronization.
//
// Post is the only entry point safe to call from other goroutines: fetch
// completions use it to hand their continuation back to the timeline. A
// task posted during frame N runs after the traversal of frame N+1 at the
// earliest, never within the frame that issued the fetch and never
// concurrently with it.
type Loop struct {
	clock clock.Clock

	mu    sync.Mutex
	tasks []func()

	frame     uint64
	frameTime time.Time
}

func NewLoop(c clock.Clock) *Loop {
	return &Loop{
		clock: c,
	}
}

// Schedules a task onto the timeline. Safe to call from any goroutine.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()
}

// Runs one frame: the tasks pending at frame start are set aside, the
// update function runs to completion, then that snapshot drains. Anything
// posted during the frame, by the update or by a draining task, waits for
// the next frame.
func (l *Loop) RunFrame(update func()) {
	l.frame++
	l.frameTime = l.clock.Now()

	l.mu.Lock()
	pending := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	if update != nil {
		update()
	}

	for _, task := range pending {
		task()
	}
}

// Returns the number of frames run so far
func (l *Loop) FrameNumber() uint64 {
	return l.frame
}

// Returns the clock timestamp taken at the start of the current frame
func (l *Loop) FrameTime() time.Time {
	return l.frameTime
}
