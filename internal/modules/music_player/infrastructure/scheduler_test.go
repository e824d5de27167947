package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallClockScheduler_Fires(t *testing.T) {
	fired := make(chan struct{})

	WallClockScheduler{}.AfterFunc(time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled call did not run")
	}
}

func TestWallClockScheduler_Stop(t *testing.T) {
	fired := make(chan struct{}, 1)

	timer := WallClockScheduler{}.AfterFunc(time.Hour, func() { fired <- struct{}{} })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	assert.Empty(t, fired)
}
