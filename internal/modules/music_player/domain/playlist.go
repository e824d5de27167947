package domain

// FailedItem is a playlist entry that could not be resolved into a Track.
type FailedItem struct {
	Title string
	Err   error
}

// PlaylistItem is the outcome of resolving one playlist entry:
// exactly one of Track and Failed is set.
type PlaylistItem struct {
	Track  *Track
	Failed *FailedItem
}

// Playlist is a resolved playlist with per-item outcomes in source order.
type Playlist struct {
	ID     string
	Title  string
	Author string
	Items  []PlaylistItem
}

// Partition splits the playlist into resolved tracks and failures, both in source order.
func (p *Playlist) Partition() ([]*Track, []FailedItem) {
	tracks := make([]*Track, 0, len(p.Items))
	var failed []FailedItem

	for _, item := range p.Items {
		switch {
		case item.Track != nil:
			tracks = append(tracks, item.Track)
		case item.Failed != nil:
			failed = append(failed, *item.Failed)
		}
	}

	return tracks, failed
}
