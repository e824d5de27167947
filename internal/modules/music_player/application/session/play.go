package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// Play handles a play request. A user request is resolved and queued first;
// then the session connects, or starts the front track once the connection
// is ready and nothing is loaded. A Continue request only advances playback.
func (s *Session) Play(ctx context.Context, req PlayRequest) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.fail(ctx, domain.ErrNotConnected)
	}
	s.timer.cancel()
	s.mu.Unlock()

	if !req.Continue {
		if err := s.parse(ctx, req); err != nil {
			s.mu.Lock()
			s.armIfIdleLocked()
			s.mu.Unlock()
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.startLocked(ctx, req.Continue)
}

// parse resolves the request and queues the result. The loading flag is
// released on every path, including a panicking resolver.
func (s *Session) parse(ctx context.Context, req PlayRequest) (err error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return s.fail(ctx, domain.ErrMissingURL)
	}

	s.setLoading(true)
	defer s.setLoading(false)

	contentType := domain.DetectContentType(query)
	defer func() {
		if r := recover(); r != nil {
			cause := errors.Newf("resolver panic: %v", r)
			fetchErr := domain.ErrTrackFetch
			if contentType == domain.ContentTypePlaylist {
				fetchErr = domain.ErrPlaylistFetch
			}
			err = s.fail(ctx, errors.WithSecondaryError(errors.Wrap(fetchErr, query), cause))
		}
	}()

	s.log.Debug().
		Str("query", query).
		Stringer("content_type", contentType).
		Msg("resolving play request")

	switch contentType {
	case domain.ContentTypePlaylist:
		return s.parsePlaylist(ctx, query, req)
	default:
		return s.parseTrack(ctx, query, req)
	}
}

func (s *Session) parseTrack(ctx context.Context, url string, req PlayRequest) error {
	track, err := s.deps.Tracks.ResolveTrack(ctx, url)
	if err != nil {
		return s.fail(ctx, classifyResolution(err, domain.ErrTrackFetch, url))
	}
	track = track.WithRequester(req.RequesterID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.fail(ctx, domain.ErrNotConnected)
	}

	waiting := !s.queue.IsEmpty() || s.current != nil
	length := s.queue.Enqueue(track)

	s.log.Info().
		Str("track", track.Title).
		Int("queue_length", length).
		Msg("track queued")

	if waiting {
		s.notify(ctx, domain.Notification{
			Kind:          domain.NotifyTrackQueued,
			Track:         track,
			QueuePosition: length,
			QueueLength:   length,
		})
	}
	s.notify(ctx, domain.Notification{
		Kind:      domain.NotifyLookingForTrack,
		Track:     track,
		SourceURL: url,
	})

	return nil
}

func (s *Session) parsePlaylist(ctx context.Context, url string, req PlayRequest) error {
	playlist, err := s.deps.Playlists.ResolvePlaylist(ctx, url)
	if err != nil {
		return s.fail(ctx, classifyResolution(err, domain.ErrPlaylistFetch, url))
	}

	tracks, failed := playlist.Partition()
	for _, item := range failed {
		s.log.Warn().Err(item.Err).Str("item", item.Title).Msg("playlist item skipped")
		s.notify(ctx, domain.Notification{
			Kind:    domain.NotifyError,
			Message: fmt.Sprintf("Can't add track to queue: %s!", item.Title),
			Err:     item.Err,
		})
	}
	for i, track := range tracks {
		tracks[i] = track.WithRequester(req.RequesterID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.fail(ctx, domain.ErrNotConnected)
	}

	length := s.queue.EnqueueMany(tracks)

	s.log.Info().
		Str("playlist", playlist.Title).
		Int("added", len(tracks)).
		Int("failed", len(failed)).
		Int("queue_length", length).
		Msg("playlist queued")

	s.notify(ctx, domain.Notification{
		Kind:          domain.NotifyPlaylistQueued,
		PlaylistTitle: playlist.Title,
		AddedCount:    len(tracks),
		QueueLength:   length,
	})

	return nil
}

// classifyResolution keeps validation and resolution errors as they are and
// files anything else under fallback.
func classifyResolution(err, fallback error, url string) error {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrResolution) {
		return errors.Wrapf(err, "resolve %s", url)
	}
	return errors.WithSecondaryError(errors.Wrapf(fallback, "resolve %s", url), err)
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = loading
}

// startLocked is the part of Play that runs after parsing.
func (s *Session) startLocked(ctx context.Context, cont bool) error {
	if s.closed {
		return s.fail(ctx, domain.ErrNotConnected)
	}
	s.timer.cancel()

	if s.conn == nil {
		return s.connectLocked(ctx)
	}
	if !s.ready {
		// EventConnectionReady starts playback.
		return nil
	}
	if cont || s.current == nil {
		return s.readyLocked(ctx)
	}
	return nil
}

func (s *Session) connectLocked(ctx context.Context) error {
	conn, err := s.deps.Transport.Connect(ctx, s.guildID, s.voiceChannelID)
	if err != nil {
		s.armIfIdleLocked()
		return s.fail(ctx, errors.WithSecondaryError(
			errors.Wrapf(domain.ErrNotConnected, "connect to %s", s.voiceChannelID), err))
	}

	s.conn = conn
	s.ready = false
	if s.player == nil {
		s.player = s.deps.Transport.NewPlayer(s.guildID)
	}

	s.log.Info().Stringer("channel", s.voiceChannelID).Msg("connecting to voice channel")
	return nil
}
