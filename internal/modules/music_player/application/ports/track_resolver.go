package ports

import (
	"context"

	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// TrackResolver fetches metadata for a single source URL.
// A malformed URL yields an error in the domain.ErrValidation class; any other
// failure is a fetch error.
type TrackResolver interface {
	ResolveTrack(ctx context.Context, sourceURL string) (*domain.Track, error)
}

// PlaylistResolver expands a playlist URL into per-item outcomes.
// An error is returned only when the playlist as a whole cannot be read.
type PlaylistResolver interface {
	ResolvePlaylist(ctx context.Context, sourceURL string) (*domain.Playlist, error)
}
