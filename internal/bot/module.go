package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// InteractionHandler handles a slash command. A returned error is logged and
// answered with a generic error embed.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is any function accepted by discordgo's AddHandler,
// e.g., func(s *discordgo.Session, e *discordgo.VoiceStateUpdate).
type EventHandler any

// ModuleDependencies is what the bot hands to modules on Init.
type ModuleDependencies struct {
	// Context is cancelled when the bot stops.
	Context context.Context

	// Session is open, so Session.State.User is populated.
	Session *discordgo.Session
}

// Module is a self-contained feature of the bot.
type Module interface {
	// Name returns the unique module name.
	Name() string

	// Commands returns the slash commands the module owns.
	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers maps command names to handlers. It is read after Init.
	CommandHandlers() map[string]InteractionHandler

	// EventHandlers returns gateway event handlers. It is read after Init.
	EventHandlers() []EventHandler

	// Init wires the module once the gateway is open.
	Init(deps ModuleDependencies) error

	// Shutdown releases everything Init acquired.
	Shutdown() error
}

// ConfigurableModule is implemented by modules with their own configuration.
// LoadConfig runs before the gateway is opened, so a bad config stops the bot
// before it connects.
type ConfigurableModule interface {
	LoadConfig() error
}
