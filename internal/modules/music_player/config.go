package music_player

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// configPathEnv names the environment variable pointing at an optional YAML config file.
const configPathEnv = "MUSIC_PLAYER_CONFIG"

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `yaml:"lavalink_address" env:"LAVALINK_ADDRESS" validate:"required,hostname_port"`
	LavalinkPassword string `yaml:"lavalink_password" env:"LAVALINK_PASSWORD" validate:"required"`
	LavalinkSecure   bool   `yaml:"lavalink_secure" env:"LAVALINK_SECURE"`

	// IdleTimeout is how long an idle session stays in the voice channel.
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT" default:"5m" validate:"gt=0"`

	// Redis caches track metadata when RedisAddr is set.
	RedisAddr        string        `yaml:"redis_addr" env:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword    string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB          int           `yaml:"redis_db" env:"REDIS_DB" validate:"gte=0"`
	MetadataCacheTTL time.Duration `yaml:"metadata_cache_ttl" env:"METADATA_CACHE_TTL" default:"6h" validate:"gt=0"`

	NotifyRate  time.Duration `yaml:"notify_rate" env:"NOTIFY_RATE" default:"500ms" validate:"gt=0"`
	NotifyBurst int           `yaml:"notify_burst" env:"NOTIFY_BURST" default:"5" validate:"gte=1"`

	YouTubeTimeout  time.Duration `yaml:"youtube_timeout" env:"YOUTUBE_TIMEOUT" default:"15s" validate:"gt=0"`
	EventBufferSize int           `yaml:"event_buffer_size" env:"EVENT_BUFFER_SIZE" default:"100" validate:"gte=1"`
}

// LoadConfig reads the optional YAML file named by MUSIC_PLAYER_CONFIG,
// applies environment overrides, fills defaults, and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config

	if path := os.Getenv(configPathEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}
