package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_WithValidToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token-123")
	t.Setenv("DISCORD_GUILD_ID", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "test-token-123", cfg.DiscordToken)
	assert.Empty(t, cfg.GuildID)
}

func TestLoadConfig_WithEmptyToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestLoadConfig_GuildID(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	t.Run("numeric", func(t *testing.T) {
		t.Setenv("DISCORD_GUILD_ID", "123456789012345678")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "123456789012345678", cfg.GuildID)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Setenv("DISCORD_GUILD_ID", "my-guild")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
