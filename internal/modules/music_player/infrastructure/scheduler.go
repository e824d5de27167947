package infrastructure

import (
	"time"

	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
)

// WallClockScheduler schedules calls on the runtime timer.
type WallClockScheduler struct{}

// AfterFunc implements ports.Scheduler.
func (WallClockScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}

var _ ports.Scheduler = WallClockScheduler{}
