// Package repositories implements SQLite persistence for cached collections
// and playback snapshots.
//
// Key Implementations:
//   - [CollectionRepository] : Fetched collections with their ordered tracks
//   - [SnapshotRepository] : Last observed playback state per device
//
// Collections are written whole: saving replaces the track list atomically so
// a cached collection is never a mix of two fetches.
package repositories

import (
	"encoding/json"
	"fmt"
)

// encodeArtists stores a track's artist list as a JSON array. A joined string
// would break on names containing the separator.
func encodeArtists(artists []string) (string, error) {
	data, err := json.Marshal(artists)
	if err != nil {
		return "", fmt.Errorf("failed to encode artists: %w", err)
	}
	return string(data), nil
}

func decodeArtists(data string) ([]string, error) {
	var artists []string
	if err := json.Unmarshal([]byte(data), &artists); err != nil {
		return nil, fmt.Errorf("failed to decode artists: %w", err)
	}
	return artists, nil
}
