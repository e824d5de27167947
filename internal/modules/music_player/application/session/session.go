// Package session implements the per-guild playback state machine and the
// manager that owns one Session per guild.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

const (
	defaultVolume = 1.0

	// DefaultIdleTimeout is how long an idle session keeps its voice connection.
	DefaultIdleTimeout = 5 * time.Minute
)

// Dependencies are the collaborators shared by every session.
type Dependencies struct {
	Tracks    ports.TrackResolver
	Playlists ports.PlaylistResolver
	Transport ports.Transport
	Resources ports.ResourceProvider
	Notifier  ports.Notifier
	Scheduler ports.Scheduler
}

// Options bind a session to a guild and its channels.
type Options struct {
	GuildID        snowflake.ID
	TextChannelID  snowflake.ID
	VoiceChannelID snowflake.ID
	IdleTimeout    time.Duration

	// OnDisconnect is invoked after every teardown path. It may run more than once.
	OnDisconnect func()
}

// PlayRequest is the input of Play.
type PlayRequest struct {
	Query       string
	RequesterID snowflake.ID

	// Continue skips parsing and only advances playback.
	Continue bool
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID         uuid.UUID
	GuildID    snowflake.ID
	State      domain.SessionState
	Current    *domain.Track
	Queue      []*domain.Track
	IsPlaying  bool
	IsLoading  bool
	IsLooped   bool
	Volume     float64
	TimerArmed bool
}

// Session is the playback state machine of one guild. All commands and
// transport events are serialised through mu; track resolution runs unlocked.
type Session struct {
	id             uuid.UUID
	guildID        snowflake.ID
	textChannelID  snowflake.ID
	voiceChannelID snowflake.ID

	deps         Dependencies
	onDisconnect func()
	log          zerolog.Logger

	mu      sync.Mutex
	queue   *domain.Queue
	conn    ports.VoiceConnection
	player  ports.AudioPlayer
	current *domain.AudioResource
	timer   *inactivityTimer

	ready     bool
	isPlaying bool
	isLoading bool
	isLooped  bool
	volume    float64
	closed    bool
}

// New creates a Session with no voice connection and an empty queue.
func New(deps Dependencies, opts Options) *Session {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.OnDisconnect == nil {
		opts.OnDisconnect = func() {}
	}

	id := uuid.New()
	s := &Session{
		id:             id,
		guildID:        opts.GuildID,
		textChannelID:  opts.TextChannelID,
		voiceChannelID: opts.VoiceChannelID,
		deps:           deps,
		onDisconnect:   opts.OnDisconnect,
		log: zlog.With().
			Str("session", id.String()).
			Stringer("guild", opts.GuildID).
			Logger(),
		queue:  domain.NewQueue(),
		volume: defaultVolume,
	}
	s.timer = newInactivityTimer(deps.Scheduler, opts.IdleTimeout, s.onIdleTimeout)

	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// GuildID returns the guild the session belongs to.
func (s *Session) GuildID() snowflake.ID {
	return s.guildID
}

// TextChannelID returns the channel notifications are sent to.
func (s *Session) TextChannelID() snowflake.ID {
	return s.textChannelID
}

// VoiceChannelID returns the voice channel the session plays in.
func (s *Session) VoiceChannelID() snowflake.ID {
	return s.voiceChannelID
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		GuildID:    s.guildID,
		State:      s.stateLocked(),
		Queue:      s.queue.List(),
		IsPlaying:  s.isPlaying,
		IsLoading:  s.isLoading,
		IsLooped:   s.isLooped,
		Volume:     s.volume,
		TimerArmed: s.timer.armed(),
	}
	if s.current != nil {
		snap.Current = s.current.Track
	}
	return snap
}

func (s *Session) stateLocked() domain.SessionState {
	switch {
	case s.closed:
		return domain.StateDisconnected
	case s.isLoading:
		return domain.StateLoading
	case s.conn == nil:
		return domain.StateIdle
	case !s.ready:
		return domain.StateConnecting
	case s.isPlaying:
		return domain.StatePlaying
	case s.current != nil:
		return domain.StatePaused
	default:
		return domain.StateIdle
	}
}

// idleLocked reports whether the queue is empty and nothing is loaded.
func (s *Session) idleLocked() bool {
	return s.queue.IsEmpty() && s.current == nil && !s.isLoading
}

// armIfIdleLocked starts the inactivity timer when there is nothing to play.
func (s *Session) armIfIdleLocked() {
	if s.closed || !s.idleLocked() {
		return
	}
	s.timer.arm()
	s.log.Debug().Msg("inactivity timer armed")
}

func (s *Session) notify(ctx context.Context, n domain.Notification) {
	n.GuildID = s.guildID
	n.ChannelID = s.textChannelID
	s.deps.Notifier.Notify(ctx, n)
}

// fail reports err to the notifier and returns it.
func (s *Session) fail(ctx context.Context, err error) error {
	event := s.log.Warn()
	if errors.Is(err, domain.ErrTransportCommand) || domain.ErrorClass(err) == nil {
		event = s.log.Error()
	}
	event.Err(err).Msg("command failed")

	s.notify(ctx, domain.Notification{
		Kind:    domain.NotifyError,
		Message: domain.UserMessage(err),
		Err:     err,
	})
	return err
}
