package domain

import (
	"strings"
)

// ContentType describes what a play request points at.
type ContentType int

const (
	ContentTypeTrack ContentType = iota
	ContentTypePlaylist
)

// String returns a human-readable representation of the content type.
func (c ContentType) String() string {
	switch c {
	case ContentTypePlaylist:
		return "playlist"
	default:
		return "track"
	}
}

// DetectContentType inspects a source URL for a playlist marker.
// A watch URL carrying "&list=" or a "/playlist?list=" URL is a playlist;
// everything else is treated as a single track.
func DetectContentType(sourceURL string) ContentType {
	sourceURL = strings.TrimSpace(sourceURL)

	if strings.Index(sourceURL, "&list=") > 0 {
		return ContentTypePlaylist
	}
	if strings.Contains(sourceURL, "/playlist?list=") {
		return ContentTypePlaylist
	}
	return ContentTypeTrack
}

