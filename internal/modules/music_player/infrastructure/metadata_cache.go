package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

const metadataKeyPrefix = "delamain:track:"

// RedisStore is the part of a go-redis client used by the metadata cache.
type RedisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// cachedTrack is the stored form of track metadata.
type cachedTrack struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Author       string        `json:"author"`
	SourceURL    string        `json:"source_url"`
	ThumbnailURL string        `json:"thumbnail_url"`
	Duration     time.Duration `json:"duration"`
	IsLive       bool          `json:"is_live"`
}

// CachingTrackResolver serves track metadata from Redis and falls back to
// the wrapped resolver on a miss. Cache failures never fail a lookup.
type CachingTrackResolver struct {
	next  ports.TrackResolver
	store RedisStore
	ttl   time.Duration
}

// NewCachingTrackResolver wraps next with a Redis cache.
func NewCachingTrackResolver(next ports.TrackResolver, store RedisStore, ttl time.Duration) *CachingTrackResolver {
	return &CachingTrackResolver{next: next, store: store, ttl: ttl}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "could not connect to redis at %s", addr)
	}
	return client, nil
}

// ResolveTrack implements ports.TrackResolver.
func (c *CachingTrackResolver) ResolveTrack(ctx context.Context, sourceURL string) (*domain.Track, error) {
	videoID, err := ParseVideoURL(sourceURL)
	if err != nil {
		return nil, err
	}
	key := metadataKeyPrefix + videoID

	if track, ok := c.lookup(ctx, key); ok {
		return track, nil
	}

	track, err := c.next.ResolveTrack(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	c.save(ctx, key, track)
	return track, nil
}

func (c *CachingTrackResolver) lookup(ctx context.Context, key string) (*domain.Track, bool) {
	raw, err := c.store.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zlog.Warn().Err(err).Str("key", key).Msg("metadata cache read failed")
		}
		return nil, false
	}

	var cached cachedTrack
	if err := json.Unmarshal(raw, &cached); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("discarding malformed cache entry")
		return nil, false
	}

	return domain.NewTrack(
		domain.TrackID(cached.ID),
		cached.Title,
		cached.Author,
		cached.SourceURL,
		cached.ThumbnailURL,
		cached.Duration,
		cached.IsLive,
		0,
	), true
}

func (c *CachingTrackResolver) save(ctx context.Context, key string, track *domain.Track) {
	raw, err := json.Marshal(cachedTrack{
		ID:           string(track.ID),
		Title:        track.Title,
		Author:       track.Author,
		SourceURL:    track.SourceURL,
		ThumbnailURL: track.ThumbnailURL,
		Duration:     track.Duration,
		IsLive:       track.IsLive,
	})
	if err != nil {
		return
	}

	if err := c.store.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("metadata cache write failed")
	}
}

var _ ports.TrackResolver = (*CachingTrackResolver)(nil)
