// Package models defines the data model for the playlist playback client.
//
// Types fall into two groups:
//
// 1. Catalog data, immutable once fetched:
//   - [Track] : one playable song with its artists and album
//   - [Collection] : an ordered track sequence identified by a remote playlist id
//   - [PlaylistSummary] : search-result metadata without tracks
//
// 2. Playback data, re-read from the remote player:
//   - [Device] : a playback target, re-fetched per selection and never cached across sessions
//   - [PlaybackSnapshot] : a point-in-time read of remote player state, replaced wholesale
package models

import (
	"strings"
	"time"
)

// Track represents one playable song. Immutable once fetched.
type Track struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Artists   []string `json:"artists"`
	Album     string   `json:"album"`
	AlbumYear *int     `json:"album_year,omitempty"` // nil when the release date is unknown
}

// Valid reports whether the track carries the required identifier, title, and at least one artist.
func (t Track) Valid() bool {
	return t.ID != "" && t.Title != "" && len(t.Artists) > 0
}

// URI returns the Spotify track URI for playback offsets.
func (t Track) URI() string {
	return "spotify:track:" + t.ID
}

// ArtistLine returns the comma-joined artist names for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Collection is an ordered sequence of tracks in remote catalog order.
type Collection struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Owner  string  `json:"owner"`
	URI    string  `json:"uri"`
	Tracks []Track `json:"tracks"`
}

// PlaylistSummary is playlist metadata as returned by search, without tracks.
type PlaylistSummary struct {
	ID         string
	Name       string
	Owner      string
	TrackCount int
	URI        string
}

// Device represents a playback target. Transient: re-fetched per selection.
type Device struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Active         bool   `json:"active"`
	SupportsVolume bool   `json:"supports_volume"`
	VolumePercent  *int   `json:"volume_percent,omitempty"`
}

// PlaybackSnapshot is a point-in-time read of remote player state.
//
// A new snapshot replaces the previous one wholesale; there is no partial merge.
type PlaybackSnapshot struct {
	Playing        bool      `json:"playing"`
	Track          *Track    `json:"track,omitempty"`
	Shuffle        bool      `json:"shuffle"`
	DeviceID       string    `json:"device_id"`
	DeviceName     string    `json:"device_name"`
	SupportsVolume bool      `json:"supports_volume"`
	VolumePercent  *int      `json:"volume_percent,omitempty"`
	ProgressMS     *int      `json:"progress_ms,omitempty"`
	DurationMS     *int      `json:"duration_ms,omitempty"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// TrackID returns the playing track's id, or "" when no track is loaded.
func (s *PlaybackSnapshot) TrackID() string {
	if s == nil || s.Track == nil {
		return ""
	}
	return s.Track.ID
}

// IsPlaying reports the playing flag, defaulting to false for a nil snapshot.
func (s *PlaybackSnapshot) IsPlaying() bool {
	return s != nil && s.Playing
}

// ShuffleOn reports the shuffle flag, defaulting to false for a nil snapshot.
func (s *PlaybackSnapshot) ShuffleOn() bool {
	return s != nil && s.Shuffle
}

// ParseAlbumYear extracts a 4-digit year from a release date like "1999-03-21".
// Returns nil when the prefix is not a plausible year.
func ParseAlbumYear(releaseDate string) *int {
	if len(releaseDate) < 4 {
		return nil
	}
	year := 0
	for _, r := range releaseDate[:4] {
		if r < '0' || r > '9' {
			return nil
		}
		year = year*10 + int(r-'0')
	}
	return &year
}
