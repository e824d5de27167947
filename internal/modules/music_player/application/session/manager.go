package session

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// Manager owns at most one Session per guild, routes transport events to
// them, and forgets a session once it has torn down.
type Manager struct {
	deps        Dependencies
	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[snowflake.ID]*Session
}

// NewManager creates a new Manager.
func NewManager(deps Dependencies, idleTimeout time.Duration) *Manager {
	return &Manager{
		deps:        deps,
		idleTimeout: idleTimeout,
		sessions:    make(map[snowflake.ID]*Session),
	}
}

// GetOrCreate returns the guild's session, creating one bound to the given
// channels if none exists. The boolean reports whether it was created.
func (m *Manager) GetOrCreate(guildID, textChannelID, voiceChannelID snowflake.ID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[guildID]; ok {
		return s, false
	}

	var s *Session
	s = New(m.deps, Options{
		GuildID:        guildID,
		TextChannelID:  textChannelID,
		VoiceChannelID: voiceChannelID,
		IdleTimeout:    m.idleTimeout,
		OnDisconnect: func() {
			m.release(guildID, s)
		},
	})
	m.sessions[guildID] = s

	zlog.Debug().
		Stringer("guild", guildID).
		Str("session", s.ID().String()).
		Msg("session created")

	return s, true
}

// Get returns the guild's session, if any.
func (m *Manager) Get(guildID snowflake.ID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[guildID]
	return s, ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// release forgets s if it is still the guild's session. Repeated calls are no-ops.
func (m *Manager) release(guildID snowflake.ID, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.sessions[guildID]; ok && current == s {
		delete(m.sessions, guildID)
		zlog.Debug().
			Stringer("guild", guildID).
			Str("session", s.ID().String()).
			Msg("session released")
	}
}

// HandleEvent routes a transport event to the guild's session.
func (m *Manager) HandleEvent(ctx context.Context, event domain.TransportEvent) {
	s, ok := m.Get(event.GuildID)
	if !ok {
		zlog.Debug().
			Stringer("guild", event.GuildID).
			Stringer("event", event.Kind).
			Msg("no session for transport event")
		return
	}

	if err := s.HandleEvent(ctx, event); err != nil {
		zlog.Warn().
			Err(err).
			Stringer("guild", event.GuildID).
			Stringer("event", event.Kind).
			Msg("failed to handle transport event")
	}
}

// Start subscribes the manager to transport events.
func (m *Manager) Start(subscriber ports.EventSubscriber) error {
	if err := subscriber.Subscribe(m.HandleEvent); err != nil {
		return err
	}

	zlog.Debug().Msg("session manager subscribed to transport events")
	return nil
}

// Shutdown disconnects every session.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Disconnect(ctx)
	}
}
