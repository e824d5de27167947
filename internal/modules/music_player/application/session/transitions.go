package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// teardownTimeout bounds transport calls made on a teardown nobody waits for.
const teardownTimeout = 10 * time.Second

// HandleEvent applies a transport lifecycle event. Events for one guild must
// be delivered in the order the transport emitted them.
func (s *Session) HandleEvent(ctx context.Context, event domain.TransportEvent) error {
	s.mu.Lock()
	released, err := s.handleEventLocked(ctx, event)
	s.mu.Unlock()

	if released {
		s.onDisconnect()
	}
	return err
}

func (s *Session) handleEventLocked(
	ctx context.Context,
	event domain.TransportEvent,
) (released bool, err error) {
	if s.closed {
		s.log.Debug().Stringer("event", event.Kind).Msg("event ignored after teardown")
		return false, nil
	}

	s.log.Debug().Stringer("event", event.Kind).Msg("transport event")

	switch event.Kind {
	case domain.EventConnectionReady:
		if s.conn == nil {
			return false, nil
		}
		s.ready = true
		if s.current != nil {
			// Reconnected while a resource is loaded; keep playing it.
			return false, nil
		}
		return false, s.readyLocked(ctx)

	case domain.EventPlayerIdle:
		if event.Encoded != "" && (s.current == nil || s.current.Encoded != event.Encoded) {
			s.log.Debug().Msg("idle event for a resource that is no longer loaded")
			return false, nil
		}
		s.isPlaying = false
		s.current = nil
		if s.queue.IsEmpty() {
			s.armIfIdleLocked()
			return false, nil
		}
		return false, s.startLocked(ctx, true)

	case domain.EventConnectionDisconnected:
		if s.teardownLocked(ctx) {
			s.notify(ctx, domain.Notification{Kind: domain.NotifyDisconnected})
		}
		s.log.Info().Msg("voice connection lost")
		return true, nil

	case domain.EventConnectionDestroyed:
		s.releaseLocked()
		s.log.Info().Msg("voice connection destroyed")
		return true, nil
	}

	return false, nil
}

// readyLocked starts the front track on a ready connection. An empty queue is
// a no-op apart from arming the inactivity timer.
func (s *Session) readyLocked(ctx context.Context) error {
	var (
		track *domain.Track
		ok    bool
	)
	if s.isLooped {
		track, ok = s.queue.PeekFront()
	} else {
		track, ok = s.queue.DequeueFront()
	}
	if !ok {
		s.log.Debug().Msg("nothing to play")
		s.armIfIdleLocked()
		return nil
	}

	resource, err := s.deps.Resources.Build(ctx, track)
	if err != nil {
		s.isPlaying = false
		s.current = nil
		s.armIfIdleLocked()
		return s.fail(ctx, errors.WithSecondaryError(
			errors.Wrapf(domain.ErrTrackFetch, "build resource for %s", track.SourceURL), err))
	}

	resource.Track = track

	s.notify(ctx, domain.Notification{
		Kind:        domain.NotifyNowPlaying,
		Track:       track,
		QueueLength: s.queue.Len(),
		Looped:      s.isLooped,
	})

	s.current = resource
	s.isPlaying = true

	if s.conn.Subscribe(s.player) {
		s.log.Debug().Msg("player subscribed")
	}

	if err := s.player.Play(ctx, resource); err != nil {
		s.isPlaying = false
		s.current = nil
		s.armIfIdleLocked()
		return s.fail(ctx, errors.WithSecondaryError(
			errors.Wrapf(domain.ErrPlayRefused, "play %s", track.SourceURL), err))
	}

	s.log.Info().
		Str("track", track.Title).
		Bool("looped", s.isLooped).
		Int("queue_length", s.queue.Len()).
		Msg("now playing")

	return nil
}

// teardownLocked stops playback, destroys the connection and marks the
// session terminal. It reports whether a connection was torn down.
func (s *Session) teardownLocked(ctx context.Context) bool {
	if s.player != nil && s.current != nil {
		if err := s.player.Stop(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to stop player")
		}
	}

	hadConn := s.conn != nil
	if hadConn {
		if err := s.conn.Destroy(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to destroy voice connection")
		}
	}

	s.releaseLocked()
	return hadConn
}

// releaseLocked drops every handle and flag without calling the transport.
func (s *Session) releaseLocked() {
	s.timer.cancel()
	s.conn = nil
	s.player = nil
	s.current = nil
	s.ready = false
	s.isPlaying = false
	s.isLoading = false
	s.isLooped = false
	s.volume = defaultVolume
	s.queue.Clear()
	s.closed = true
}

// onIdleTimeout is the inactivity timer callback.
func (s *Session) onIdleTimeout(generation uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	s.mu.Lock()
	if !s.timer.claim(generation) || s.closed || !s.idleLocked() {
		s.mu.Unlock()
		return
	}

	s.log.Info().Msg("disconnecting after inactivity")
	if s.teardownLocked(ctx) {
		s.notify(ctx, domain.Notification{Kind: domain.NotifyDisconnected})
	}
	s.mu.Unlock()

	s.onDisconnect()
}
