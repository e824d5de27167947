package session

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// Skip drops the loaded track, or the queue front when nothing is loaded,
// and advances playback.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.fail(ctx, domain.ErrNotConnected)
	}

	var skipped *domain.Track
	if s.current != nil {
		skipped = s.current.Track
		if front, ok := s.queue.PeekFront(); ok && s.isLooped && front == skipped {
			s.queue.DequeueFront()
		}
	} else if front, ok := s.queue.DequeueFront(); ok {
		skipped = front
	}
	if skipped == nil {
		return s.fail(ctx, domain.ErrNothingToSkip)
	}

	s.log.Info().Str("track", skipped.Title).Msg("track skipped")
	s.notify(ctx, domain.Notification{
		Kind:        domain.NotifySkipped,
		Track:       skipped,
		QueueLength: s.queue.Len(),
	})

	if s.current != nil && s.queue.IsEmpty() {
		if err := s.player.Stop(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to stop player")
		}
		s.current = nil
		s.isPlaying = false
	}

	if s.conn == nil {
		s.armIfIdleLocked()
		return nil
	}
	return s.startLocked(ctx, true)
}

// Pause pauses the loaded track. The queue must not be empty; the loaded
// track has already left it unless it is looped.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return s.fail(ctx, domain.ErrNotConnected)
	case s.queue.IsEmpty():
		return s.fail(ctx, domain.ErrNothingToPause)
	case s.player == nil || s.current == nil:
		return s.fail(ctx, domain.ErrNothingPlaying)
	case !s.isPlaying && s.player.Status() == domain.PlayerStatusPaused:
		return s.fail(ctx, domain.ErrAlreadyPaused)
	}

	if err := s.player.Pause(ctx); err != nil {
		return s.fail(ctx, errors.WithSecondaryError(domain.ErrPauseRefused, err))
	}

	s.notify(ctx, domain.Notification{
		Kind:  domain.NotifyPaused,
		Track: s.current.Track,
	})
	s.isPlaying = false

	s.log.Info().Msg("playback paused")
	return nil
}

// Resume resumes the paused track. Like Pause, it requires a non-empty queue.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return s.fail(ctx, domain.ErrNotConnected)
	case s.queue.IsEmpty():
		return s.fail(ctx, domain.ErrNothingToResume)
	case s.isPlaying:
		return s.fail(ctx, domain.ErrAlreadyPlaying)
	case s.player == nil || s.current == nil:
		return s.fail(ctx, domain.ErrNothingPlaying)
	}

	if err := s.player.Unpause(ctx); err != nil {
		return s.fail(ctx, errors.WithSecondaryError(domain.ErrResumeRefused, err))
	}

	s.isPlaying = true
	s.notify(ctx, domain.Notification{
		Kind:  domain.NotifyResumed,
		Track: s.current.Track,
	})

	s.log.Info().Msg("playback resumed")
	return nil
}

// ToggleLoop flips loop mode and returns the new value. While looped the
// front of the queue is replayed instead of consumed, so the loaded track is
// put back at the front when loop mode is enabled and taken off when it is
// disabled.
func (s *Session) ToggleLoop(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, s.fail(ctx, domain.ErrNotConnected)
	}

	s.isLooped = !s.isLooped

	if s.current != nil {
		front, ok := s.queue.PeekFront()
		atFront := ok && front == s.current.Track
		switch {
		case s.isLooped && !atFront:
			s.queue.PushFront(s.current.Track)
		case !s.isLooped && atFront:
			s.queue.DequeueFront()
		}
	}

	s.notify(ctx, domain.Notification{
		Kind:   domain.NotifyLoop,
		Looped: s.isLooped,
	})

	s.log.Info().Bool("looped", s.isLooped).Msg("loop mode toggled")
	return s.isLooped, nil
}

// CurrentTrack reports the front of the queue. It does not change the session.
func (s *Session) CurrentTrack(ctx context.Context) (*domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.queue.PeekFront()
	if !ok {
		return nil, s.fail(ctx, domain.ErrNothingPlaying)
	}

	s.notify(ctx, domain.Notification{
		Kind:        domain.NotifyCurrentTrack,
		Track:       track,
		QueueLength: s.queue.Len(),
		Looped:      s.isLooped,
	})
	return track, nil
}

// Disconnect tears the session down and invokes the disconnect callback.
func (s *Session) Disconnect(ctx context.Context) {
	s.mu.Lock()
	if !s.closed {
		s.log.Info().Msg("disconnecting on request")
		if s.teardownLocked(ctx) {
			s.notify(ctx, domain.Notification{Kind: domain.NotifyDisconnected})
		}
	}
	s.mu.Unlock()

	s.onDisconnect()
}
