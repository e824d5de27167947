package domain

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewTrack(t *testing.T) {
	requester := snowflake.ID(42)
	track := NewTrack(
		"dQw4w9WgXcQ",
		"Never Gonna Give You Up",
		"Rick Astley",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		3*time.Minute+33*time.Second,
		false,
		requester,
	)

	assert.Equal(t, TrackID("dQw4w9WgXcQ"), track.ID)
	assert.Equal(t, "Never Gonna Give You Up", track.Title)
	assert.Equal(t, "Rick Astley", track.Author)
	assert.Equal(t, requester, track.RequesterID)
	assert.False(t, track.EnqueuedAt.IsZero())
}

func TestTrack_WithRequester(t *testing.T) {
	original := &Track{ID: "abc", Title: "Song", RequesterID: 1}

	copied := original.WithRequester(2)

	assert.Equal(t, snowflake.ID(1), original.RequesterID)
	assert.Equal(t, snowflake.ID(2), copied.RequesterID)
	assert.Equal(t, original.Title, copied.Title)
	assert.NotSame(t, original, copied)
}

func TestTrack_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Song", (&Track{Title: "Song"}).DisplayTitle())
	assert.Equal(t, "No title!", (&Track{}).DisplayTitle())
}

func TestTrack_FormattedDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		isLive   bool
		want     string
	}{
		{name: "zero", duration: 0, want: "00:00"},
		{name: "seconds only", duration: 45 * time.Second, want: "00:45"},
		{name: "minutes and seconds", duration: 3*time.Minute + 33*time.Second, want: "03:33"},
		{name: "hours", duration: time.Hour + 2*time.Minute + 3*time.Second, want: "01:02:03"},
		{name: "live", duration: 0, isLive: true, want: "LIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &Track{Duration: tt.duration, IsLive: tt.isLive}
			assert.Equal(t, tt.want, track.FormattedDuration())
		})
	}
}
