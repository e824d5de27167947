package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	youtube "github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

type fakeYouTubeClient struct {
	videos   map[string]*youtube.Video
	playlist *youtube.Playlist
	err      error
}

func (f *fakeYouTubeClient) GetVideoContext(_ context.Context, id string) (*youtube.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	video, ok := f.videos[id]
	if !ok {
		return nil, errors.New("video unavailable")
	}
	return video, nil
}

func (f *fakeYouTubeClient) GetPlaylistContext(context.Context, string) (*youtube.Playlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.playlist, nil
}

func (f *fakeYouTubeClient) VideoFromPlaylistEntryContext(
	ctx context.Context,
	entry *youtube.PlaylistEntry,
) (*youtube.Video, error) {
	return f.GetVideoContext(ctx, entry.ID)
}

func TestParseVideoURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "watch url", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "short url", url: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "music url", url: "https://music.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "without scheme", url: "www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "other host", url: "https://vimeo.com/12345", wantErr: true},
		{name: "not a url", url: "never gonna give you up", wantErr: true},
		{name: "ftp scheme", url: "ftp://youtube.com/watch?v=dQw4w9WgXcQ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVideoURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidURL)
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYouTubeResolver_ResolveTrack(t *testing.T) {
	client := &fakeYouTubeClient{videos: map[string]*youtube.Video{
		"dQw4w9WgXcQ": {
			ID:       "dQw4w9WgXcQ",
			Title:    "Never Gonna Give You Up",
			Author:   "Rick Astley",
			Duration: 213 * time.Second,
			Thumbnails: youtube.Thumbnails{
				{URL: "small.jpg", Width: 120, Height: 90},
				{URL: "large.jpg", Width: 1280, Height: 720},
			},
		},
		"live0000000": {ID: "live0000000", Title: "Radio", HLSManifestURL: "https://example/hls.m3u8"},
	}}
	r := &YouTubeResolver{client: client}

	track, err := r.ResolveTrack(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, domain.TrackID("dQw4w9WgXcQ"), track.ID)
	assert.Equal(t, "Never Gonna Give You Up", track.Title)
	assert.Equal(t, "Rick Astley", track.Author)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", track.SourceURL)
	assert.Equal(t, "large.jpg", track.ThumbnailURL)
	assert.Equal(t, 213*time.Second, track.Duration)
	assert.False(t, track.IsLive)

	live, err := r.ResolveTrack(context.Background(), "https://www.youtube.com/watch?v=live0000000")
	require.NoError(t, err)
	assert.True(t, live.IsLive)
}

func TestYouTubeResolver_ResolveTrack_Errors(t *testing.T) {
	r := &YouTubeResolver{client: &fakeYouTubeClient{err: errors.New("429 too many requests")}}

	_, err := r.ResolveTrack(context.Background(), "https://example.com/video")
	assert.ErrorIs(t, err, domain.ErrInvalidURL)

	_, err = r.ResolveTrack(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	assert.ErrorIs(t, err, domain.ErrTrackFetch)
	assert.ErrorIs(t, err, domain.ErrResolution)
}

func TestYouTubeResolver_ResolvePlaylist(t *testing.T) {
	client := &fakeYouTubeClient{
		videos: map[string]*youtube.Video{
			"aaaaaaaaaaa": {ID: "aaaaaaaaaaa", Title: "First"},
			"ccccccccccc": {ID: "ccccccccccc", Title: "Third"},
		},
		playlist: &youtube.Playlist{
			ID:    "PL123",
			Title: "Mix",
			Videos: []*youtube.PlaylistEntry{
				{ID: "aaaaaaaaaaa", Title: "First"},
				{ID: "bbbbbbbbbbb", Title: "Private video"},
				{ID: "ccccccccccc", Title: "Third"},
			},
		},
	}
	r := &YouTubeResolver{client: client}

	playlist, err := r.ResolvePlaylist(
		context.Background(),
		"https://www.youtube.com/watch?v=aaaaaaaaaaa&list=PL123",
	)
	require.NoError(t, err)
	assert.Equal(t, "Mix", playlist.Title)

	tracks, failed := playlist.Partition()
	require.Len(t, tracks, 2)
	assert.Equal(t, "First", tracks[0].Title)
	assert.Equal(t, "Third", tracks[1].Title)
	require.Len(t, failed, 1)
	assert.Equal(t, "Private video", failed[0].Title)
}

func TestYouTubeResolver_ResolvePlaylist_Errors(t *testing.T) {
	r := &YouTubeResolver{client: &fakeYouTubeClient{err: errors.New("not found")}}

	_, err := r.ResolvePlaylist(context.Background(), "https://example.com/playlist?list=PL1")
	assert.ErrorIs(t, err, domain.ErrInvalidURL)

	_, err = r.ResolvePlaylist(context.Background(), "https://www.youtube.com/playlist?list=PL1")
	assert.ErrorIs(t, err, domain.ErrPlaylistFetch)
}
