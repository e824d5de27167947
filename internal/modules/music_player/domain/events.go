package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// TransportEventKind identifies a lifecycle event emitted by the audio transport.
type TransportEventKind int

const (
	// EventConnectionReady means the voice connection is established and can stream audio.
	EventConnectionReady TransportEventKind = iota
	// EventPlayerIdle means the current resource finished or was stopped.
	EventPlayerIdle
	// EventConnectionDisconnected means the transport lost the voice connection.
	EventConnectionDisconnected
	// EventConnectionDestroyed means the voice connection was torn down for good.
	EventConnectionDestroyed
)

// String returns a human-readable representation of the event kind.
func (k TransportEventKind) String() string {
	switch k {
	case EventConnectionReady:
		return "connection_ready"
	case EventPlayerIdle:
		return "player_idle"
	case EventConnectionDisconnected:
		return "connection_disconnected"
	case EventConnectionDestroyed:
		return "connection_destroyed"
	default:
		return "unknown"
	}
}

// TransportEvent is a transport lifecycle callback delivered to a session as a message.
type TransportEvent struct {
	GuildID snowflake.ID
	Kind    TransportEventKind

	// Encoded identifies the resource that ended, for EventPlayerIdle.
	// Empty when the transport cannot tell.
	Encoded string
}

// TrackEndReason represents why the transport finished a track.
type TrackEndReason string

const (
	TrackEndFinished   TrackEndReason = "finished"
	TrackEndLoadFailed TrackEndReason = "load_failed"
	TrackEndStopped    TrackEndReason = "stopped"
	TrackEndReplaced   TrackEndReason = "replaced"
	TrackEndCleanup    TrackEndReason = "cleanup"
)

// LeavesPlayerIdle returns true if the track ended on its own and the session
// must advance. A stopped track was stopped by the session, which has already
// updated its own state. A replaced track is followed by its replacement, and
// cleanup happens only while the player is being destroyed.
func (r TrackEndReason) LeavesPlayerIdle() bool {
	return r == TrackEndFinished || r == TrackEndLoadFailed
}
