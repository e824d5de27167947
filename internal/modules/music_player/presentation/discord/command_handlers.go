package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/bot"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/session"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// maxQueueLines bounds the number of upcoming tracks listed by /queue.
const maxQueueLines = 10

// SessionProvider hands out the per-guild playback sessions.
type SessionProvider interface {
	GetOrCreate(guildID, textChannelID, voiceChannelID snowflake.ID) (*session.Session, bool)
	Get(guildID snowflake.ID) (*session.Session, bool)
}

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	sessions   SessionProvider
	voiceState ports.VoiceStateProvider
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(sessions SessionProvider, voiceState ports.VoiceStateProvider) *CommandHandlers {
	return &CommandHandlers{
		sessions:   sessions,
		voiceState: voiceState,
	}
}

// Handlers returns the command name to handler mapping.
func (h *CommandHandlers) Handlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":       h.HandlePlay,
		"skip":       h.HandleSkip,
		"pause":      h.HandlePause,
		"resume":     h.HandleResume,
		"loop":       h.HandleLoop,
		"nowplaying": h.HandleNowPlaying,
		"queue":      h.HandleQueue,
		"leave":      h.HandleLeave,
	}
}

// HandlePlay handles the /play command. Resolution can take a while, so the
// response is deferred and edited once the request has been queued.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	userID, err := snowflake.Parse(interactionUserID(i))
	if err != nil {
		return respondError(r, "Invalid user")
	}

	textChannelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid text channel")
	}

	var url string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "url" {
			url = opt.StringValue()
		}
	}

	voiceChannelID, err := h.voiceState.GetUserVoiceChannel(guildID, userID)
	if err != nil {
		zlog.Warn().Err(err).Stringer("guild", guildID).Msg("failed to look up voice state")
		return respondError(r, domain.UserMessage(domain.ErrUserNotInVoice))
	}
	if voiceChannelID == nil {
		return respondError(r, domain.UserMessage(domain.ErrUserNotInVoice))
	}

	if err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return err
	}

	s, created := h.sessions.GetOrCreate(guildID, textChannelID, *voiceChannelID)
	if created {
		zlog.Info().
			Stringer("guild", guildID).
			Stringer("voice_channel", *voiceChannelID).
			Msg("started music session")
	}

	if err := s.Play(ctx, session.PlayRequest{Query: url, RequesterID: userID}); err != nil {
		return editError(r, domain.UserMessage(err))
	}

	return editSuccess(r, fmt.Sprintf("Request from <@%d> received.", userID))
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(ctx context.Context, s *session.Session) error {
		if err := s.Skip(ctx); err != nil {
			return respondError(r, domain.UserMessage(err))
		}
		return respondSuccess(r, "Skipped.")
	})
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(ctx context.Context, s *session.Session) error {
		if err := s.Pause(ctx); err != nil {
			return respondError(r, domain.UserMessage(err))
		}
		return respondSuccess(r, "Paused.")
	})
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(ctx context.Context, s *session.Session) error {
		if err := s.Resume(ctx); err != nil {
			return respondError(r, domain.UserMessage(err))
		}
		return respondSuccess(r, "Resumed.")
	})
}

// HandleLoop handles the /loop command.
func (h *CommandHandlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(ctx context.Context, s *session.Session) error {
		looped, err := s.ToggleLoop(ctx)
		if err != nil {
			return respondError(r, domain.UserMessage(err))
		}
		if looped {
			return respondSuccess(r, "Loop enabled.")
		}
		return respondSuccess(r, "Loop disabled.")
	})
}

// HandleNowPlaying handles the /nowplaying command.
func (h *CommandHandlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(ctx context.Context, s *session.Session) error {
		track, err := s.CurrentTrack(ctx)
		if err != nil {
			return respondError(r, domain.UserMessage(err))
		}
		return respondSuccess(r, trackLink(track))
	})
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(_ context.Context, s *session.Session) error {
		snap := s.Snapshot()

		upcoming := snap.Queue
		if snap.Current != nil && len(upcoming) > 0 && upcoming[0] == snap.Current {
			// A looped track stays at the front while it plays.
			upcoming = upcoming[1:]
		}

		if snap.Current == nil && len(upcoming) == 0 {
			return respondError(r, domain.UserMessage(domain.ErrNothingPlaying))
		}

		var sb strings.Builder
		if snap.Current != nil {
			sb.WriteString("**Now playing**\n")
			sb.WriteString(trackLink(snap.Current))
			if snap.IsLooped {
				sb.WriteString(" (looped)")
			}
			sb.WriteString("\n\n")
		}

		if len(upcoming) > 0 {
			sb.WriteString("**Up next**\n")
			for idx, track := range upcoming {
				if idx == maxQueueLines {
					fmt.Fprintf(&sb, "...and %d more\n", len(upcoming)-maxQueueLines)
					break
				}
				writeTrackLine(&sb, idx+1, track)
			}
		}

		return r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{
					{
						Title:       "Queue",
						Description: sb.String(),
						Color:       colorSuccess,
						Footer: &discordgo.MessageEmbedFooter{
							Text: fmt.Sprintf("%d track(s) in queue", len(upcoming)),
						},
					},
				},
			},
		})
	})
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(ctx context.Context, s *session.Session) error {
		s.Disconnect(ctx)
		return respondSuccess(r, "Disconnected.")
	})
}

// withSession runs fn with the guild's session, or reports that there is none.
func (h *CommandHandlers) withSession(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	fn func(ctx context.Context, s *session.Session) error,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	s, ok := h.sessions.Get(guildID)
	if !ok {
		return respondError(r, domain.UserMessage(domain.ErrNotConnected))
	}

	return fn(context.Background(), s)
}

// interactionUserID returns the invoking user's ID for guild and DM interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondSuccess(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func editError(r bot.Responder, message string) error {
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{
			{
				Title:       "Error",
				Description: message,
				Color:       colorError,
			},
		},
	})
}

func editSuccess(r bot.Responder, message string) error {
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{
			{
				Description: message,
				Color:       colorSuccess,
			},
		},
	})
}

func trackLink(track *domain.Track) string {
	if track.SourceURL != "" {
		return fmt.Sprintf("[%s](%s) `%s`", track.DisplayTitle(), track.SourceURL, track.FormattedDuration())
	}
	return fmt.Sprintf("**%s** `%s`", track.DisplayTitle(), track.FormattedDuration())
}

// writeTrackLine writes a single track line to the string builder.
// Escapes period to prevent Discord markdown list formatting.
func writeTrackLine(sb *strings.Builder, displayIndex int, track *domain.Track) {
	fmt.Fprintf(sb, "%d\\. %s\n", displayIndex, trackLink(track))
}
