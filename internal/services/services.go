// package services defines interface Service for interacting with the remote player HTTP API
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/shared"
	"golang.org/x/oauth2"
)

// Service defines the remote music service boundary: catalog search, paginated
// collection reads, and playback control. Exactly one implementation talks to
// the Spotify Web API; tests substitute doubles.
type Service interface {
	// Authenticate performs OAuth authentication with the service.
	// Expects either an "access_token", "refresh_token" or "auth_code" credential.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// SearchPlaylists searches the catalog for playlists matching query.
	SearchPlaylists(ctx context.Context, query string, limit int) ([]models.PlaylistSummary, error)

	// CurrentUserPlaylists retrieves the authenticated user's playlists, paginating internally.
	CurrentUserPlaylists(ctx context.Context, limit int) ([]models.PlaylistSummary, error)

	// Playlist retrieves metadata for a single playlist.
	Playlist(ctx context.Context, playlistID string) (*models.PlaylistSummary, error)

	// CollectionPage retrieves one raw page of playlist items.
	//
	// The returned page preserves the raw item count: malformed items come back
	// as zero-valued tracks so callers can drive pagination off raw counts while
	// applying their own validation policy.
	CollectionPage(ctx context.Context, playlistID string, offset, limit int) (*CollectionPage, error)

	// Devices lists the playback devices currently visible to the user.
	Devices(ctx context.Context) ([]models.Device, error)

	// CurrentPlayback reads the player snapshot. Returns (nil, nil) when the
	// service reports no active playback.
	CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error)

	// StartPlayback begins playing a context (playlist URI) on the device,
	// optionally starting at offsetURI.
	StartPlayback(ctx context.Context, deviceID, contextURI, offsetURI string) error

	// ResumePlayback resumes the current context on the device.
	ResumePlayback(ctx context.Context, deviceID string) error

	Pause(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
	SetShuffle(ctx context.Context, state bool, deviceID string) error
	SetVolume(ctx context.Context, percent int, deviceID string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService is implemented by services that support the browser-based
// authorization code flow.
type OAuthService interface {
	// AuthURL returns the authorization URL the user opens to grant access.
	AuthURL(state string) string

	// OAuthConfig exposes the OAuth2 config for the callback exchange.
	OAuthConfig() *oauth2.Config

	// AuthenticateToken installs an already-issued token.
	AuthenticateToken(ctx context.Context, token *oauth2.Token)
}

// CollectionPage is one raw page of playlist items.
type CollectionPage struct {
	Items []models.Track // one entry per raw item, invalid items zero-valued
	Total int            // total items the remote reports for the collection
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Status     int
	Message    string
	RetryAfter time.Duration // server-advised wait, set on rate-limit responses
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.Status)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

// Unwrap maps the status class onto the shared error taxonomy, so callers
// can test with errors.Is instead of digging out the status code.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == 429:
		return shared.ErrRateLimited
	case e.Status == 401 || e.Status == 403:
		return shared.ErrAuthFailed
	}
	return nil
}

// RateLimited reports whether the error is a 429 rate-limit response.
func (e *APIError) RateLimited() bool {
	return e.Status == 429
}

// AuthFailure reports whether the error indicates a bad or expired authorization.
func (e *APIError) AuthFailure() bool {
	return e.Status == 401 || e.Status == 403
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
