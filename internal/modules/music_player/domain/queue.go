package domain

// Queue is a FIFO sequence of tracks. The front is the next track to play.
// A Queue is owned by exactly one session and is not safe for concurrent use.
type Queue struct {
	tracks []*Track
}

// NewQueue creates a new empty Queue.
func NewQueue() *Queue {
	return &Queue{
		tracks: make([]*Track, 0),
	}
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Enqueue appends a track to the back of the queue and returns the new length.
func (q *Queue) Enqueue(track *Track) int {
	q.tracks = append(q.tracks, track)
	return q.Len()
}

// EnqueueMany appends tracks in order and returns the new length.
func (q *Queue) EnqueueMany(tracks []*Track) int {
	q.tracks = append(q.tracks, tracks...)
	return q.Len()
}

// PushFront puts a track at the front of the queue and returns the new length.
func (q *Queue) PushFront(track *Track) int {
	q.tracks = append([]*Track{track}, q.tracks...)
	return q.Len()
}

// DequeueFront removes and returns the front track.
// The second return value is false when the queue is empty.
func (q *Queue) DequeueFront() (*Track, bool) {
	if q.IsEmpty() {
		return nil, false
	}

	track := q.tracks[0]
	q.tracks[0] = nil
	q.tracks = q.tracks[1:]
	return track, true
}

// PeekFront returns the front track without removing it.
// The second return value is false when the queue is empty.
func (q *Queue) PeekFront() (*Track, bool) {
	if q.IsEmpty() {
		return nil, false
	}
	return q.tracks[0], true
}

// List returns a copy of all queued tracks, front first.
func (q *Queue) List() []*Track {
	result := make([]*Track, q.Len())
	copy(result, q.tracks)
	return result
}

// Clear removes all tracks from the queue.
func (q *Queue) Clear() {
	q.tracks = make([]*Track, 0)
}
