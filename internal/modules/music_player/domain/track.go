package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// TrackID is the identifier of a track at its source (e.g., a YouTube video ID).
type TrackID string

// Track represents a playable audio item. A Track is never mutated after creation.
type Track struct {
	ID           TrackID
	Title        string
	Author       string
	SourceURL    string
	ThumbnailURL string
	Duration     time.Duration
	IsLive       bool
	RequesterID  snowflake.ID // Discord user who requested the track
	EnqueuedAt   time.Time
}

// NewTrack creates a new Track with the given parameters.
func NewTrack(
	id TrackID,
	title string,
	author string,
	sourceURL string,
	thumbnailURL string,
	duration time.Duration,
	isLive bool,
	requesterID snowflake.ID,
) *Track {
	return &Track{
		ID:           id,
		Title:        title,
		Author:       author,
		SourceURL:    sourceURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		IsLive:       isLive,
		RequesterID:  requesterID,
		EnqueuedAt:   time.Now().UTC(),
	}
}

// WithRequester returns a copy of the track attributed to the given requester.
func (t *Track) WithRequester(requesterID snowflake.ID) *Track {
	c := *t
	c.RequesterID = requesterID
	c.EnqueuedAt = time.Now().UTC()
	return &c
}

// DisplayTitle returns the title, or a placeholder when the source had none.
func (t *Track) DisplayTitle() string {
	if t.Title == "" {
		return "No title!"
	}
	return t.Title
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t *Track) FormattedDuration() string {
	if t.IsLive {
		return "LIVE"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
