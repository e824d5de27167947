package domain

// SessionState is the observable playback state of a session.
type SessionState int

const (
	StateIdle         SessionState = iota // No voice connection, or connected with nothing to play
	StateConnecting                       // Waiting for the voice connection to become ready
	StateLoading                          // Resolving a play request
	StatePlaying                          // A resource is playing
	StatePaused                           // A resource is loaded but paused
	StateDisconnected                     // Torn down; the session must be discarded
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// PlayerStatus is the status reported by an audio player.
type PlayerStatus int

const (
	PlayerStatusIdle PlayerStatus = iota
	PlayerStatusPlaying
	PlayerStatusPaused
)

// String returns the string representation of the player status.
func (s PlayerStatus) String() string {
	switch s {
	case PlayerStatusPlaying:
		return "playing"
	case PlayerStatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

// AudioResource is a streamable handle for a track, bound to the transport.
type AudioResource struct {
	Track   *Track
	Encoded string // transport-specific encoded track data
}
