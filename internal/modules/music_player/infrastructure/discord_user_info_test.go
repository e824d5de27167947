package infrastructure

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemberFetcher struct {
	member *discordgo.Member
	err    error
}

func (f *fakeMemberFetcher) GuildMember(
	_, _ string,
	_ ...discordgo.RequestOption,
) (*discordgo.Member, error) {
	return f.member, f.err
}

func TestDiscordUserInfoProvider_DisplayNamePriority(t *testing.T) {
	tests := []struct {
		name   string
		member *discordgo.Member
		want   string
	}{
		{
			name:   "nickname",
			member: &discordgo.Member{Nick: "Nick", User: &discordgo.User{ID: "1", GlobalName: "Global", Username: "user"}},
			want:   "Nick",
		},
		{
			name:   "global name",
			member: &discordgo.Member{User: &discordgo.User{ID: "1", GlobalName: "Global", Username: "user"}},
			want:   "Global",
		},
		{
			name:   "username",
			member: &discordgo.Member{User: &discordgo.User{ID: "1", Username: "user"}},
			want:   "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDiscordUserInfoProvider(&fakeMemberFetcher{member: tt.member})

			info, err := p.GetUserInfo(100, 1)

			require.NoError(t, err)
			assert.Equal(t, tt.want, info.DisplayName)
			assert.NotEmpty(t, info.AvatarURL)
		})
	}
}

func TestDiscordUserInfoProvider_Errors(t *testing.T) {
	_, err := NewDiscordUserInfoProvider(&fakeMemberFetcher{err: errors.New("unknown member")}).GetUserInfo(100, 1)
	assert.Error(t, err)

	_, err = NewDiscordUserInfoProvider(&fakeMemberFetcher{member: &discordgo.Member{}}).GetUserInfo(100, 1)
	assert.Error(t, err)
}
