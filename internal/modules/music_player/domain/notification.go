package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// NotificationKind identifies what a notification reports.
type NotificationKind int

const (
	NotifyLookingForTrack NotificationKind = iota
	NotifyTrackQueued
	NotifyPlaylistQueued
	NotifyNowPlaying
	NotifySkipped
	NotifyPaused
	NotifyResumed
	NotifyLoop
	NotifyCurrentTrack
	NotifyDisconnected
	NotifyError
)

// String returns a human-readable representation of the notification kind.
func (k NotificationKind) String() string {
	switch k {
	case NotifyLookingForTrack:
		return "looking_for_track"
	case NotifyTrackQueued:
		return "track_queued"
	case NotifyPlaylistQueued:
		return "playlist_queued"
	case NotifyNowPlaying:
		return "now_playing"
	case NotifySkipped:
		return "skipped"
	case NotifyPaused:
		return "paused"
	case NotifyResumed:
		return "resumed"
	case NotifyLoop:
		return "loop"
	case NotifyCurrentTrack:
		return "current_track"
	case NotifyDisconnected:
		return "disconnected"
	case NotifyError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a rendering request for user-visible feedback.
// Which fields are set depends on Kind.
type Notification struct {
	Kind      NotificationKind
	GuildID   snowflake.ID
	ChannelID snowflake.ID // text channel the session is bound to

	Track         *Track
	SourceURL     string // NotifyLookingForTrack
	QueuePosition int    // NotifyTrackQueued: 1-based position, 0 if it plays next
	QueueLength   int
	PlaylistTitle string // NotifyPlaylistQueued
	AddedCount    int    // NotifyPlaylistQueued
	Looped        bool   // NotifyLoop
	Message       string // NotifyError
	Err           error  // NotifyError
}
