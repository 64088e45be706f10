// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/services"
)

// MockService is a configurable test double for [services.Service].
//
// Unset function fields return zero values. Every invocation is recorded in
// Calls as "Method(arg, ...)" for assertion on call order and counts.
type MockService struct {
	mu    sync.Mutex
	Calls []string

	SearchPlaylistsFn      func(ctx context.Context, query string, limit int) ([]models.PlaylistSummary, error)
	CurrentUserPlaylistsFn func(ctx context.Context, limit int) ([]models.PlaylistSummary, error)
	PlaylistFn             func(ctx context.Context, playlistID string) (*models.PlaylistSummary, error)
	CollectionPageFn       func(ctx context.Context, playlistID string, offset, limit int) (*services.CollectionPage, error)
	DevicesFn              func(ctx context.Context) ([]models.Device, error)
	CurrentPlaybackFn      func(ctx context.Context) (*models.PlaybackSnapshot, error)
	StartPlaybackFn        func(ctx context.Context, deviceID, contextURI, offsetURI string) error
	ResumePlaybackFn       func(ctx context.Context, deviceID string) error
	PauseFn                func(ctx context.Context, deviceID string) error
	NextFn                 func(ctx context.Context, deviceID string) error
	PreviousFn             func(ctx context.Context, deviceID string) error
	SetShuffleFn           func(ctx context.Context, state bool, deviceID string) error
	SetVolumeFn            func(ctx context.Context, percent int, deviceID string) error
}

var _ services.Service = (*MockService)(nil)

func (m *MockService) record(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, fmt.Sprintf(format, args...))
}

// CallCount returns how many recorded calls match the exact string.
func (m *MockService) CallCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	m.record("Authenticate()")
	return nil
}

func (m *MockService) SearchPlaylists(ctx context.Context, query string, limit int) ([]models.PlaylistSummary, error) {
	m.record("SearchPlaylists(%s, %d)", query, limit)
	if m.SearchPlaylistsFn != nil {
		return m.SearchPlaylistsFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *MockService) CurrentUserPlaylists(ctx context.Context, limit int) ([]models.PlaylistSummary, error) {
	m.record("CurrentUserPlaylists(%d)", limit)
	if m.CurrentUserPlaylistsFn != nil {
		return m.CurrentUserPlaylistsFn(ctx, limit)
	}
	return nil, nil
}

func (m *MockService) Playlist(ctx context.Context, playlistID string) (*models.PlaylistSummary, error) {
	m.record("Playlist(%s)", playlistID)
	if m.PlaylistFn != nil {
		return m.PlaylistFn(ctx, playlistID)
	}
	return &models.PlaylistSummary{ID: playlistID, Name: "Playlist"}, nil
}

func (m *MockService) CollectionPage(ctx context.Context, playlistID string, offset, limit int) (*services.CollectionPage, error) {
	m.record("CollectionPage(%s, %d, %d)", playlistID, offset, limit)
	if m.CollectionPageFn != nil {
		return m.CollectionPageFn(ctx, playlistID, offset, limit)
	}
	return &services.CollectionPage{}, nil
}

func (m *MockService) Devices(ctx context.Context) ([]models.Device, error) {
	m.record("Devices()")
	if m.DevicesFn != nil {
		return m.DevicesFn(ctx)
	}
	return nil, nil
}

func (m *MockService) CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error) {
	m.record("CurrentPlayback()")
	if m.CurrentPlaybackFn != nil {
		return m.CurrentPlaybackFn(ctx)
	}
	return nil, nil
}

func (m *MockService) StartPlayback(ctx context.Context, deviceID, contextURI, offsetURI string) error {
	m.record("StartPlayback(%s, %s, %s)", deviceID, contextURI, offsetURI)
	if m.StartPlaybackFn != nil {
		return m.StartPlaybackFn(ctx, deviceID, contextURI, offsetURI)
	}
	return nil
}

func (m *MockService) ResumePlayback(ctx context.Context, deviceID string) error {
	m.record("ResumePlayback(%s)", deviceID)
	if m.ResumePlaybackFn != nil {
		return m.ResumePlaybackFn(ctx, deviceID)
	}
	return nil
}

func (m *MockService) Pause(ctx context.Context, deviceID string) error {
	m.record("Pause(%s)", deviceID)
	if m.PauseFn != nil {
		return m.PauseFn(ctx, deviceID)
	}
	return nil
}

func (m *MockService) Next(ctx context.Context, deviceID string) error {
	m.record("Next(%s)", deviceID)
	if m.NextFn != nil {
		return m.NextFn(ctx, deviceID)
	}
	return nil
}

func (m *MockService) Previous(ctx context.Context, deviceID string) error {
	m.record("Previous(%s)", deviceID)
	if m.PreviousFn != nil {
		return m.PreviousFn(ctx, deviceID)
	}
	return nil
}

func (m *MockService) SetShuffle(ctx context.Context, state bool, deviceID string) error {
	m.record("SetShuffle(%t, %s)", state, deviceID)
	if m.SetShuffleFn != nil {
		return m.SetShuffleFn(ctx, state, deviceID)
	}
	return nil
}

func (m *MockService) SetVolume(ctx context.Context, percent int, deviceID string) error {
	m.record("SetVolume(%d, %s)", percent, deviceID)
	if m.SetVolumeFn != nil {
		return m.SetVolumeFn(ctx, percent, deviceID)
	}
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// MakeTracks builds n sequential valid tracks ("track-0", "track-1", ...).
func MakeTracks(n int) []models.Track {
	tracks := make([]models.Track, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, models.Track{
			ID:      fmt.Sprintf("track-%d", i),
			Title:   fmt.Sprintf("Track %d", i),
			Artists: []string{"Artist"},
		})
	}
	return tracks
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
