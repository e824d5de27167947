package music_player

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/bot"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/session"
	"github.com/sglre6355/delamain/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/delamain/internal/modules/music_player/presentation/discord"
)

// shutdownTimeout bounds how long Shutdown waits for sessions and pending notifications.
const shutdownTimeout = 10 * time.Second

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers

	eventBus  *infrastructure.ChannelEventBus
	transport *infrastructure.LavalinkTransport
	notifier  *infrastructure.Notifier
	redis     *redis.Client
	sessions  *session.Manager
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	if m.commandHandlers == nil {
		return nil
	}
	return m.commandHandlers.Handlers()
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			if m.transport != nil {
				m.transport.OnVoiceServerUpdate(event)
			}
		},
		func(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			if m.transport != nil {
				m.transport.OnVoiceStateUpdate(event)
			}
		},
	}
}

// LoadConfig loads module-specific configuration.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load music_player config")
	}
	m.config = cfg
	return nil
}

// Init wires the playback stack. Without a Discord session the module
// loads but exposes no command handlers.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		zlog.Warn().Msg("music_player module initialized without session, playback disabled")
		return nil
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}

	m.eventBus = infrastructure.NewChannelEventBus(m.config.EventBufferSize)

	transport, err := infrastructure.NewLavalinkTransport(
		ctx,
		deps.Session,
		m.eventBus,
		infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
			Secure:   m.config.LavalinkSecure,
		},
	)
	if err != nil {
		m.eventBus.Close()
		return err
	}
	m.transport = transport

	youtube := infrastructure.NewYouTubeResolver(m.config.YouTubeTimeout)
	var tracks ports.TrackResolver = youtube
	if m.config.RedisAddr != "" {
		client, err := infrastructure.NewRedisClient(
			ctx,
			m.config.RedisAddr,
			m.config.RedisPassword,
			m.config.RedisDB,
		)
		if err != nil {
			zlog.Warn().Err(err).Msg("metadata cache disabled")
		} else {
			m.redis = client
			tracks = infrastructure.NewCachingTrackResolver(youtube, client, m.config.MetadataCacheTTL)
		}
	}

	m.notifier = infrastructure.NewNotifier(
		deps.Session,
		infrastructure.NewDiscordUserInfoProvider(deps.Session),
		infrastructure.NotifierConfig{
			Interval: m.config.NotifyRate,
			Burst:    m.config.NotifyBurst,
		},
	)

	m.sessions = session.NewManager(session.Dependencies{
		Tracks:    tracks,
		Playlists: youtube,
		Transport: transport,
		Resources: transport,
		Notifier:  m.notifier,
		Scheduler: infrastructure.WallClockScheduler{},
	}, m.config.IdleTimeout)
	if err := m.sessions.Start(m.eventBus); err != nil {
		return m.abortInit(errors.Wrap(err, "failed to subscribe session manager"))
	}

	m.commandHandlers = discord.NewCommandHandlers(
		m.sessions,
		infrastructure.NewVoiceStateProvider(deps.Session.State),
	)

	zlog.Info().
		Dur("idle_timeout", m.config.IdleTimeout).
		Bool("metadata_cache", m.redis != nil).
		Msg("music_player module initialized")

	return nil
}

// abortInit releases whatever Init already built and returns err.
func (m *MusicPlayerModule) abortInit(err error) error {
	if serr := m.Shutdown(); serr != nil {
		zlog.Warn().Err(serr).Msg("failed to clean up after init failure")
	}
	return err
}

// Shutdown disconnects every session and releases module resources.
func (m *MusicPlayerModule) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if m.sessions != nil {
		m.sessions.Shutdown(ctx)
	}
	if m.notifier != nil {
		m.notifier.Close(ctx)
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	if m.transport != nil {
		m.transport.Close()
	}

	var err error
	if m.redis != nil {
		if cerr := m.redis.Close(); cerr != nil {
			err = errors.Wrap(cerr, "failed to close redis client")
		}
	}
	return err
}
