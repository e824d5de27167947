package ports

import (
	"context"

	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// AudioPlayer plays audio resources for a single guild.
type AudioPlayer interface {
	// Play starts playback of the given resource, replacing any current one.
	Play(ctx context.Context, resource *domain.AudioResource) error

	// Stop stops the current playback. The transport does not report
	// PlayerIdle for it; the caller updates its own state.
	Stop(ctx context.Context) error

	// Pause pauses the current playback.
	Pause(ctx context.Context) error

	// Unpause resumes the paused playback.
	Unpause(ctx context.Context) error

	// Status returns the status the player currently reports.
	Status() domain.PlayerStatus
}

// ResourceProvider turns a Track into a streamable resource bound to the transport.
type ResourceProvider interface {
	Build(ctx context.Context, track *domain.Track) (*domain.AudioResource, error)
}
