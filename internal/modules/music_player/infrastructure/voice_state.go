package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
)

// VoiceStateCache is the part of *discordgo.State used to look up voice states.
type VoiceStateCache interface {
	VoiceState(guildID, userID string) (*discordgo.VoiceState, error)
}

// VoiceStateProvider provides Discord voice state information.
type VoiceStateProvider struct {
	state VoiceStateCache
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(state VoiceStateCache) *VoiceStateProvider {
	return &VoiceStateProvider{
		state: state,
	}
}

// GetUserVoiceChannel returns the voice channel ID that the user is currently in.
// Returns nil if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (*snowflake.ID, error) {
	vs, err := v.state.VoiceState(guildID.String(), userID.String())
	if err != nil {
		if errors.Is(err, discordgo.ErrStateNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read voice state")
	}
	if vs.ChannelID == "" {
		return nil, nil
	}

	channelID, err := snowflake.Parse(vs.ChannelID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid channel ID %q", vs.ChannelID)
	}
	return &channelID, nil
}

// Ensure VoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)
