package bot

import (
	"context"
	"maps"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Bot owns the Discord gateway session and the modules registered with it.
type Bot struct {
	config   *Config
	session  *discordgo.Session
	modules  []Module
	handlers map[string]InteractionHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBot returns a Bot for cfg. Call LoadModules before Start.
func NewBot(cfg *Config) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: make(map[string]InteractionHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// LoadModules takes the registered modules and loads their configuration, so a
// bad environment fails before the gateway is opened.
func (b *Bot) LoadModules() error {
	b.modules = Modules()
	return b.loadModuleConfigs()
}

// Start opens the gateway, then initializes the modules and registers their
// commands. The music player needs the bot's user ID from the session state to
// connect to Lavalink, so modules are initialized only once the gateway is open.
func (b *Bot) Start() error {
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return errors.Wrap(err, "failed to create Discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	b.session = session

	b.session.AddHandler(b.handleInteraction)

	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "failed to open Discord connection")
	}

	if err := b.initModules(); err != nil {
		return errors.Wrap(err, "failed to initialize modules")
	}

	b.buildHandlerMap()
	b.registerEventHandlers()

	if err := b.registerCommands(); err != nil {
		return errors.Wrap(err, "failed to register commands")
	}

	zlog.Info().
		Str("user_id", b.session.State.User.ID).
		Str("username", b.session.State.User.Username).
		Msg("started bot")

	return nil
}

// Stop cancels the context handed to modules and shuts them down before
// closing the gateway.
func (b *Bot) Stop() error {
	b.cancel()

	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			zlog.Warn().Err(err).Str("module", mod.Name()).Msg("failed to shutdown module")
		}
	}

	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

func (b *Bot) loadModuleConfigs() error {
	for _, mod := range b.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return errors.Wrapf(err, "failed to load %s module config", mod.Name())
		}
	}
	return nil
}

func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Context: b.ctx,
		Session: b.session,
	}

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return errors.Wrapf(err, "failed to initialize %s module", mod.Name())
		}
		zlog.Debug().Str("module", mod.Name()).Msg("initialized module")
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	zlog.Info().Strs("modules", moduleNames).Msg("initialized modules")

	return nil
}

func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		maps.Copy(b.handlers, mod.CommandHandlers())
	}
}

// registerEventHandlers adds the modules' gateway handlers, such as the voice
// state updates the music player forwards to Lavalink.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// registerCommands creates the slash commands, scoped to DISCORD_GUILD_ID when set.
func (b *Bot) registerCommands() error {
	commands := b.collectCommands()

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			b.config.GuildID,
			cmd,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to register command %s", cmd.Name)
		}
		zlog.Debug().Str("command", cmd.Name).Msg("registered command")
	}

	return nil
}

const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction dispatches slash commands to the module that declared them.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	handler, ok := b.handlers[cmdName]
	if !ok {
		zlog.Warn().Str("command", cmdName).Msg("found no handler for command")
		b.respondWithEmbed(s, i, "Unknown Command", "This command is not recognized.", colorYellow)
		return
	}

	responder := NewDiscordResponder(s, i.Interaction)
	if err := handler(s, i, responder); err != nil {
		zlog.Error().Err(err).Str("command", cmdName).Msg("failed to handle command")
		b.respondWithEmbed(s, i, "Error", "An error occurred while processing your command.",
			colorRed)
	}
}

func (b *Bot) respondWithEmbed(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	title, description string,
	color int,
) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		zlog.Error().Err(err).Msg("failed to send embed response")
	}
}
