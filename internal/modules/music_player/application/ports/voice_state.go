package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// VoiceStateProvider finds the voice channel a session should bind to.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the voice channel the user is in, or nil
	// when the user is not in one. /play refuses to start a session then.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (*snowflake.ID, error)
}
