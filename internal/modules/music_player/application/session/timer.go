package session

import (
	"time"

	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
)

// inactivityTimer is a single-shot, cancellable delayed call. It is not safe
// for concurrent use; the owning Session guards it with its mutex.
//
// Every arm and cancel bumps the generation. The scheduled callback carries the
// generation it was armed with, so a firing that raced a cancel is recognised
// as stale and ignored.
type inactivityTimer struct {
	scheduler  ports.Scheduler
	delay      time.Duration
	onFire     func(generation uint64)
	pending    ports.Timer
	generation uint64
}

func newInactivityTimer(
	scheduler ports.Scheduler,
	delay time.Duration,
	onFire func(generation uint64),
) *inactivityTimer {
	return &inactivityTimer{
		scheduler: scheduler,
		delay:     delay,
		onFire:    onFire,
	}
}

// arm schedules the callback, replacing any pending one.
func (t *inactivityTimer) arm() {
	t.cancel()

	t.generation++
	generation := t.generation
	t.pending = t.scheduler.AfterFunc(t.delay, func() {
		t.onFire(generation)
	})
}

// cancel stops the pending call. It returns false if nothing was pending.
func (t *inactivityTimer) cancel() bool {
	if t.pending == nil {
		return false
	}

	t.pending.Stop()
	t.pending = nil
	t.generation++
	return true
}

func (t *inactivityTimer) armed() bool {
	return t.pending != nil
}

// claim consumes the pending call if generation is current.
// It returns false for stale or cancelled firings.
func (t *inactivityTimer) claim(generation uint64) bool {
	if t.pending == nil || generation != t.generation {
		return false
	}
	t.pending = nil
	return true
}
