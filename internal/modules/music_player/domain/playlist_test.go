package domain

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylist_Partition(t *testing.T) {
	track1 := newTestTrack(1)
	track3 := newTestTrack(3)
	playlist := &Playlist{
		Title: "Mix",
		Items: []PlaylistItem{
			{Track: track1},
			{Failed: &FailedItem{Title: "Private video", Err: errors.New("unavailable")}},
			{Track: track3},
		},
	}

	tracks, failed := playlist.Partition()

	assert.Equal(t, []*Track{track1, track3}, tracks)
	require.Len(t, failed, 1)
	assert.Equal(t, "Private video", failed[0].Title)
}

func TestPlaylist_Partition_Empty(t *testing.T) {
	tracks, failed := (&Playlist{}).Partition()

	assert.Empty(t, tracks)
	assert.Empty(t, failed)
}
