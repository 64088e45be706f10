package ui

import (
	"time"

	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/player"
	"github.com/desertthunder/splay/internal/tasks"
)

// searchResultMsg carries the playlists matching a search query.
type searchResultMsg struct {
	playlists []models.PlaylistSummary
	err       error
}

// devicesMsg carries the available playback devices.
type devicesMsg struct {
	devices []models.Device
	err     error
}

// fetchProgressMsg is one progress update from the collection fetch.
type fetchProgressMsg tasks.ProgressUpdate

// fetchDoneMsg carries the fetched collection, possibly partial.
type fetchDoneMsg struct {
	collection *models.Collection
	err        error
}

// sessionReadyMsg signals that playback started on the selected device.
type sessionReadyMsg struct {
	err error
}

// tickMsg drives the playback session loop.
type tickMsg time.Time

// pollResultMsg carries one playback snapshot read.
type pollResultMsg struct {
	snapshot *models.PlaybackSnapshot
	err      error
}

// commandDoneMsg carries an executed playback command back to the loop,
// which applies it to the session state.
type commandDoneMsg struct {
	result player.Result
}
