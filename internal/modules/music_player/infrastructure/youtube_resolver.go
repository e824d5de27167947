package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	youtube "github.com/kkdai/youtube/v2"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
	"golang.org/x/sync/errgroup"
)

// playlistConcurrency bounds parallel metadata requests for playlist entries.
const playlistConcurrency = 4

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// youtubeClient is the part of *youtube.Client used by the resolver.
type youtubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error)
	VideoFromPlaylistEntryContext(ctx context.Context, entry *youtube.PlaylistEntry) (*youtube.Video, error)
}

// YouTubeResolver fetches track and playlist metadata from YouTube.
type YouTubeResolver struct {
	client youtubeClient
}

// NewYouTubeResolver creates a resolver whose requests time out after timeout.
func NewYouTubeResolver(timeout time.Duration) *YouTubeResolver {
	return &YouTubeResolver{
		client: &youtube.Client{
			HTTPClient: &http.Client{
				Timeout: timeout,
			},
		},
	}
}

// ResolveTrack fetches metadata for a single video URL.
func (r *YouTubeResolver) ResolveTrack(ctx context.Context, sourceURL string) (*domain.Track, error) {
	videoID, err := ParseVideoURL(sourceURL)
	if err != nil {
		return nil, err
	}

	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, errors.WithSecondaryError(
			errors.Wrapf(domain.ErrTrackFetch, "get video %s", videoID), err)
	}

	return videoToTrack(video), nil
}

// ResolvePlaylist fetches a playlist and the metadata of each entry.
// Entries that cannot be fetched are reported as failed items.
func (r *YouTubeResolver) ResolvePlaylist(ctx context.Context, sourceURL string) (*domain.Playlist, error) {
	if !isYouTubeURL(sourceURL) {
		return nil, errors.Wrap(domain.ErrInvalidURL, sourceURL)
	}

	playlist, err := r.client.GetPlaylistContext(ctx, sourceURL)
	if err != nil {
		return nil, errors.WithSecondaryError(
			errors.Wrapf(domain.ErrPlaylistFetch, "get playlist %s", sourceURL), err)
	}

	items := make([]domain.PlaylistItem, len(playlist.Videos))
	var g errgroup.Group
	g.SetLimit(playlistConcurrency)

	for i, entry := range playlist.Videos {
		g.Go(func() error {
			items[i] = r.resolveEntry(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	zlog.Debug().
		Str("playlist", playlist.ID).
		Int("entries", len(items)).
		Msg("playlist resolved")

	return &domain.Playlist{
		ID:     playlist.ID,
		Title:  playlist.Title,
		Author: playlist.Author,
		Items:  items,
	}, nil
}

func (r *YouTubeResolver) resolveEntry(ctx context.Context, entry *youtube.PlaylistEntry) domain.PlaylistItem {
	video, err := r.client.VideoFromPlaylistEntryContext(ctx, entry)
	if err != nil {
		title := entry.Title
		if title == "" {
			title = entry.ID
		}
		return domain.PlaylistItem{Failed: &domain.FailedItem{
			Title: title,
			Err:   errors.Wrapf(err, "get playlist entry %s", entry.ID),
		}}
	}
	return domain.PlaylistItem{Track: videoToTrack(video)}
}

// ParseVideoURL validates a YouTube video URL and returns its video ID.
func ParseVideoURL(sourceURL string) (string, error) {
	if !isYouTubeURL(sourceURL) {
		return "", errors.Wrap(domain.ErrInvalidURL, sourceURL)
	}

	videoID, err := youtube.ExtractVideoID(sourceURL)
	if err != nil {
		return "", errors.WithSecondaryError(errors.Wrap(domain.ErrInvalidURL, sourceURL), err)
	}
	return videoID, nil
}

func isYouTubeURL(sourceURL string) bool {
	raw := strings.TrimSpace(sourceURL)
	if strings.HasPrefix(raw, "www.") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return youtubeHosts[strings.ToLower(u.Hostname())]
}

func videoToTrack(video *youtube.Video) *domain.Track {
	return domain.NewTrack(
		domain.TrackID(video.ID),
		video.Title,
		video.Author,
		fmt.Sprintf("https://www.youtube.com/watch?v=%s", video.ID),
		bestThumbnail(video.Thumbnails),
		video.Duration,
		video.HLSManifestURL != "",
		0,
	)
}

func bestThumbnail(thumbnails youtube.Thumbnails) string {
	var best youtube.Thumbnail
	for _, t := range thumbnails {
		if t.Width*t.Height >= best.Width*best.Height {
			best = t
		}
	}
	return best.URL
}

var (
	_ ports.TrackResolver    = (*YouTubeResolver)(nil)
	_ ports.PlaylistResolver = (*YouTubeResolver)(nil)
)
