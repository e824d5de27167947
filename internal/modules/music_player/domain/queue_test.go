package domain

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrack(n int) *Track {
	id := strconv.Itoa(n)
	return &Track{
		ID:        TrackID("track-" + id),
		Title:     "Song " + id,
		SourceURL: "https://www.youtube.com/watch?v=track" + id,
	}
}

func TestNewQueue(t *testing.T) {
	q := NewQueue()

	require.NotNil(t, q)
	assert.Equal(t, 0, q.Len())
	assert.True(t, q.IsEmpty())
}

func TestQueue_Enqueue(t *testing.T) {
	q := NewQueue()

	assert.Equal(t, 1, q.Enqueue(newTestTrack(1)))
	assert.Equal(t, 2, q.Enqueue(newTestTrack(2)))
	assert.False(t, q.IsEmpty())
}

func TestQueue_EnqueueMany(t *testing.T) {
	q := NewQueue()
	q.Enqueue(newTestTrack(0))

	n := q.EnqueueMany([]*Track{newTestTrack(1), newTestTrack(2), newTestTrack(3)})

	assert.Equal(t, 4, n)
	titles := make([]string, 0, n)
	for _, track := range q.List() {
		titles = append(titles, track.Title)
	}
	assert.Equal(t, []string{"Song 0", "Song 1", "Song 2", "Song 3"}, titles)
}

func TestQueue_EnqueueMany_Empty(t *testing.T) {
	q := NewQueue()

	assert.Equal(t, 0, q.EnqueueMany(nil))
	assert.True(t, q.IsEmpty())
}

func TestQueue_DequeueFront(t *testing.T) {
	q := NewQueue()
	track1 := newTestTrack(1)
	track2 := newTestTrack(2)
	q.Enqueue(track1)
	q.Enqueue(track2)

	got, ok := q.DequeueFront()
	require.True(t, ok)
	assert.Same(t, track1, got)
	assert.Equal(t, 1, q.Len())

	got, ok = q.DequeueFront()
	require.True(t, ok)
	assert.Same(t, track2, got)

	got, ok = q.DequeueFront()
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestQueue_PeekFront(t *testing.T) {
	q := NewQueue()

	_, ok := q.PeekFront()
	assert.False(t, ok)

	track := newTestTrack(1)
	q.Enqueue(track)

	got, ok := q.PeekFront()
	require.True(t, ok)
	assert.Same(t, track, got)
	assert.Equal(t, 1, q.Len(), "peek must not remove the track")
}

func TestQueue_List_ReturnsCopy(t *testing.T) {
	q := NewQueue()
	q.Enqueue(newTestTrack(1))

	list := q.List()
	list[0] = newTestTrack(99)

	front, _ := q.PeekFront()
	assert.Equal(t, "Song 1", front.Title)
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.EnqueueMany([]*Track{newTestTrack(1), newTestTrack(2)})

	q.Clear()

	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.List())
}

func TestQueue_PushFront(t *testing.T) {
	q := NewQueue()
	q.Enqueue(newTestTrack(2))

	assert.Equal(t, 2, q.PushFront(newTestTrack(1)))

	front, ok := q.PeekFront()
	require.True(t, ok)
	assert.Equal(t, "Song 1", front.Title)
}

func TestQueue_FIFOOrder(t *testing.T) {
	q := NewQueue()
	var pending []*Track

	for round := range 5 {
		for i := range 3 {
			track := newTestTrack(round*10 + i)
			q.Enqueue(track)
			pending = append(pending, track)
		}
		for range 2 {
			got, ok := q.DequeueFront()
			require.True(t, ok)
			assert.Same(t, pending[0], got)
			pending = pending[1:]
		}
		assert.Equal(t, len(pending), q.Len())
	}
}
