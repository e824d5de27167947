package bot

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN" validate:"required"`

	// GuildID registers commands to a single guild when set, which makes
	// them available immediately during development.
	GuildID string `env:"DISCORD_GUILD_ID" validate:"omitempty,numeric"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse bot config")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid bot config")
	}

	return cfg, nil
}
