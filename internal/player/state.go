// Package player implements the stateful core of a playback session.
//
// [SessionState] is the single mutable record for a running session: the last
// known playback snapshot, the redraw flag, the last remote error, and the
// locally shadowed volume. [Dispatcher] maps discrete user commands onto
// remote calls plus state transitions. Both are driven by the session loop in
// the ui package; nothing here touches the terminal.
package player

import (
	"time"

	"github.com/desertthunder/splay/internal/formatter"
	"github.com/desertthunder/splay/internal/models"
)

// Minimum terminal size for a playback session. Falling below it aborts the
// session, not the process.
const (
	MinRows = 10
	MinCols = 40
)

// SessionState is the mutable cache at the heart of the session engine.
//
// Created when a playback session starts, mutated only by the session loop
// and the dispatcher, and discarded when the session ends.
type SessionState struct {
	Snapshot     *models.PlaybackSnapshot // last known remote state, nil before the first poll
	LastPollAt   time.Time
	LastErr      string // display-safe, already truncated
	ShadowVolume *int   // local best guess between polls, nil until observed
	Dirty        bool   // the cached view differs from what was last rendered
	Rows, Cols   int

	device       models.Device // originally selected playback target
	pollInterval time.Duration
}

// NewSessionState creates session state for a playback session on device.
//
// The volume shadow is seeded from the device listing when the device
// supports volume control.
func NewSessionState(device models.Device, pollInterval time.Duration) *SessionState {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	s := &SessionState{
		device:       device,
		pollInterval: pollInterval,
		Dirty:        true,
	}
	if device.SupportsVolume && device.VolumePercent != nil {
		v := *device.VolumePercent
		s.ShadowVolume = &v
	}
	return s
}

// Device returns the originally selected playback device.
func (s *SessionState) Device() models.Device {
	return s.device
}

// PollDue reports whether a snapshot read is due at now.
func (s *SessionState) PollDue(now time.Time) bool {
	return now.Sub(s.LastPollAt) >= s.pollInterval
}

// ForcePoll arranges for the next tick to poll immediately.
func (s *SessionState) ForcePoll() {
	s.LastPollAt = time.Time{}
}

// ApplySnapshot replaces the cached snapshot wholesale after a successful poll.
//
// The redraw flag is set when the playing-track identity, the play flag, or
// the shuffle flag changed, or when an error line was showing. A successful
// poll always clears the error line. The volume shadow adopts the remote
// value when the owning device reports one: remote is authoritative once
// observed.
func (s *SessionState) ApplySnapshot(snapshot *models.PlaybackSnapshot, now time.Time) {
	prev := s.Snapshot
	changed := prev.TrackID() != snapshot.TrackID() ||
		prev.IsPlaying() != snapshot.IsPlaying() ||
		prev.ShuffleOn() != snapshot.ShuffleOn() ||
		(prev == nil) != (snapshot == nil)

	if changed || s.LastErr != "" {
		s.Dirty = true
	}

	s.Snapshot = snapshot
	s.LastPollAt = now
	s.LastErr = ""

	if snapshot != nil && snapshot.SupportsVolume && snapshot.VolumePercent != nil {
		if s.ShadowVolume == nil || *s.ShadowVolume != *snapshot.VolumePercent {
			v := *snapshot.VolumePercent
			s.ShadowVolume = &v
		}
	}
}

// ApplyPollError records a failed poll. The cached snapshot is deliberately
// kept so the display continues to show last-known state.
func (s *SessionState) ApplyPollError(err error, now time.Time) {
	s.LastPollAt = now
	s.RecordError("API Error: " + err.Error())
}

// RecordError stores a truncated, display-safe error line and flags a redraw.
func (s *SessionState) RecordError(msg string) {
	s.LastErr = formatter.Truncate(msg, s.errWidth())
	s.Dirty = true
}

// ClearError removes the error line without touching the snapshot.
func (s *SessionState) ClearError() {
	if s.LastErr != "" {
		s.LastErr = ""
		s.Dirty = true
	}
}

// InvalidateSnapshot drops the cached snapshot after a state-changing command
// so stale track info is not redrawn while the forced poll is in flight.
func (s *SessionState) InvalidateSnapshot() {
	s.Snapshot = nil
	s.Dirty = true
}

// SetShadowVolume optimistically records a volume the user just requested.
func (s *SessionState) SetShadowVolume(percent int) {
	s.ShadowVolume = &percent
	s.Dirty = true
}

// VolumeBase returns the starting point for a volume adjustment: the shadow
// when present, otherwise the snapshot's observed volume.
func (s *SessionState) VolumeBase() (int, bool) {
	if s.ShadowVolume != nil {
		return *s.ShadowVolume, true
	}
	if s.Snapshot != nil && s.Snapshot.VolumePercent != nil {
		return *s.Snapshot.VolumePercent, true
	}
	return 0, false
}

// Resize records new terminal dimensions, reporting whether they changed.
func (s *SessionState) Resize(rows, cols int) bool {
	if rows == s.Rows && cols == s.Cols {
		return false
	}
	s.Rows, s.Cols = rows, cols
	s.Dirty = true
	return true
}

// TooSmall reports whether the recorded dimensions are below the session floor.
func (s *SessionState) TooSmall() bool {
	return s.Rows < MinRows || s.Cols < MinCols
}

// errWidth is the column budget for the error line.
func (s *SessionState) errWidth() int {
	if s.Cols <= 0 {
		return MinCols - 2
	}
	w := s.Cols - 2
	if w < 10 {
		w = 10
	}
	return w
}
