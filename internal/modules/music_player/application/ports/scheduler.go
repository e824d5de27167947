package ports

import "time"

// Scheduler runs functions after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call from running. It returns false if the call
	// already ran or was already stopped.
	Stop() bool
}
