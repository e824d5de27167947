package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

type fakeRedisStore struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedisStore) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return redis.NewStringResult("", f.readErr)
	}
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedisStore) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingResolver struct {
	calls int
	track *domain.Track
	err   error
}

func (r *countingResolver) ResolveTrack(context.Context, string) (*domain.Track, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.track, nil
}

func cacheTestTrack() *domain.Track {
	return domain.NewTrack(
		"dQw4w9WgXcQ",
		"Never Gonna Give You Up",
		"Rick Astley",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"large.jpg",
		213*time.Second,
		false,
		0,
	)
}

func TestCachingTrackResolver_MissThenHit(t *testing.T) {
	store := newFakeRedisStore()
	next := &countingResolver{track: cacheTestTrack()}
	r := NewCachingTrackResolver(next, store, time.Hour)

	first, err := r.ResolveTrack(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Hour, store.ttls[metadataKeyPrefix+"dQw4w9WgXcQ"])

	second, err := r.ResolveTrack(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls, "different URL forms share one cache entry")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.Author, second.Author)
	assert.Equal(t, first.Duration, second.Duration)
	assert.Equal(t, first.ThumbnailURL, second.ThumbnailURL)
}

func TestCachingTrackResolver_ReadFailureFallsBack(t *testing.T) {
	store := newFakeRedisStore()
	store.readErr = errors.New("connection refused")
	next := &countingResolver{track: cacheTestTrack()}
	r := NewCachingTrackResolver(next, store, time.Hour)

	track, err := r.ResolveTrack(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", track.Title)
	assert.Equal(t, 1, next.calls)
}

func TestCachingTrackResolver_MalformedEntryIsIgnored(t *testing.T) {
	store := newFakeRedisStore()
	store.data[metadataKeyPrefix+"dQw4w9WgXcQ"] = "{not json"
	next := &countingResolver{track: cacheTestTrack()}
	r := NewCachingTrackResolver(next, store, time.Hour)

	_, err := r.ResolveTrack(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestCachingTrackResolver_Errors(t *testing.T) {
	store := newFakeRedisStore()
	next := &countingResolver{err: errors.Wrap(domain.ErrTrackFetch, "boom")}
	r := NewCachingTrackResolver(next, store, time.Hour)

	_, err := r.ResolveTrack(context.Background(), "https://example.com/x")
	assert.ErrorIs(t, err, domain.ErrInvalidURL)
	assert.Equal(t, 0, next.calls)

	_, err = r.ResolveTrack(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	assert.ErrorIs(t, err, domain.ErrTrackFetch)
	assert.Empty(t, store.data, "failures are not cached")
}
