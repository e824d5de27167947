package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
)

var _ ports.UserInfoProvider = (*DiscordUserInfoProvider)(nil)

// MemberFetcher is the part of *discordgo.Session used to look up guild members.
type MemberFetcher interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// DiscordUserInfoProvider resolves requester display info from the guild member list.
type DiscordUserInfoProvider struct {
	members MemberFetcher
}

// NewDiscordUserInfoProvider creates a new DiscordUserInfoProvider.
func NewDiscordUserInfoProvider(members MemberFetcher) *DiscordUserInfoProvider {
	return &DiscordUserInfoProvider{members: members}
}

// GetUserInfo fetches display info for a user in a guild.
func (p *DiscordUserInfoProvider) GetUserInfo(
	guildID, userID snowflake.ID,
) (*ports.UserInfo, error) {
	member, err := p.members.GuildMember(guildID.String(), userID.String())
	if err != nil {
		return nil, errors.Wrapf(err, "fetch member %s", userID)
	}
	if member.User == nil {
		return nil, errors.Newf("member %s has no user", userID)
	}

	return &ports.UserInfo{
		DisplayName: displayName(member),
		AvatarURL:   member.User.AvatarURL(""),
	}, nil
}

// displayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
