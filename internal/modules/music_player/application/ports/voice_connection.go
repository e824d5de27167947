package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// Transport establishes voice connections and creates audio players.
// Connection lifecycle changes are reported as domain.TransportEvent messages
// through the EventPublisher the transport was built with.
type Transport interface {
	// Connect starts joining the voice channel. The returned connection is not
	// ready until EventConnectionReady is published for the guild.
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (VoiceConnection, error)

	// NewPlayer creates the audio player for the guild.
	NewPlayer(guildID snowflake.ID) AudioPlayer
}

// VoiceConnection is a handle to one guild's voice connection.
type VoiceConnection interface {
	// ChannelID returns the voice channel the connection is bound to.
	ChannelID() snowflake.ID

	// Subscribe routes the player's audio into this connection.
	// It returns false if the subscription could not be made.
	Subscribe(player AudioPlayer) bool

	// Destroy leaves the voice channel and releases transport resources.
	Destroy(ctx context.Context) error
}
