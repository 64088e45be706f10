// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Owner  owner                `json:"owner"`
	Tracks simplePlaylistTracks `json:"tracks"`
	URI    string               `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	// Search responses may pad short pages with nulls, hence the pointers.
	Items  []*SpotifySimplePlaylist `json:"items"`
	Total  int                      `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
	Next   *string                  `json:"next"`
}

// SpotifyPlaylistItem represents a track within a playlist page.
type SpotifyPlaylistItem struct {
	Track *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistItemsPage represents one page of a playlist's items.
type SpotifyPlaylistItemsPage struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// SpotifyDevice represents a playback device.
type SpotifyDevice struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	IsActive       bool   `json:"is_active"`
	SupportsVolume bool   `json:"supports_volume"`
	VolumePercent  *int   `json:"volume_percent"`
}

// SpotifyPlaybackState represents the /me/player response.
type SpotifyPlaybackState struct {
	Device       SpotifyDevice `json:"device"`
	IsPlaying    bool          `json:"is_playing"`
	ShuffleState bool          `json:"shuffle_state"`
	ProgressMS   *int          `json:"progress_ms"`
	Item         *SpotifyTrack `json:"item"`
}

type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and token refreshing.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-read-playback-state",
			"user-modify-playback-state",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    spotifyBaseURL,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
// Expects an "access_token", a "refresh_token", or an "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.AuthenticateToken(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		})
		return nil
	}

	if refreshToken, ok := credentials["refresh_token"]; ok && refreshToken != "" {
		s.AuthenticateToken(ctx, &oauth2.Token{RefreshToken: refreshToken})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		s.AuthenticateToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token, refresh_token or auth_code", shared.ErrMissingCredentials)
}

// AuthenticateToken installs an existing token. The underlying [oauth2.Config]
// client refreshes it transparently when it expires.
func (s *SpotifyService) AuthenticateToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the underlying config for the callback server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// SetBaseURL overrides the API base URL. Used by tests.
func (s *SpotifyService) SetBaseURL(base string) {
	s.baseURL = base
}

// doRequest performs an authenticated request against the Spotify API.
//
// body, when non-nil, is JSON encoded. result, when non-nil, receives the
// decoded response body. The status code is returned so callers can tell a
// 204 empty response from a populated 200.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) (int, error) {
	if s.token == nil {
		return 0, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, apiError(resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// apiError converts a non-2xx response into an *APIError, reading the
// Retry-After header on rate-limit responses.
func apiError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body spotifyErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Error.Message
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			apiErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return apiErr
}

// SearchPlaylists searches the catalog for playlists matching query.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, query string, limit int) ([]models.PlaylistSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=playlist&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Playlists SpotifyPaginatedPlaylists `json:"playlists"`
	}
	if _, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return convertPlaylists(response.Playlists.Items), nil
}

// CurrentUserPlaylists retrieves the user's playlists, following pagination
// until a short page.
func (s *SpotifyService) CurrentUserPlaylists(ctx context.Context, limit int) ([]models.PlaylistSummary, error) {
	pageSize := 50
	offset := 0

	var all []models.PlaylistSummary
	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", pageSize, offset)

		var response SpotifyPaginatedPlaylists
		if _, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		all = append(all, convertPlaylists(response.Items)...)

		if len(response.Items) < pageSize || (limit > 0 && len(all) >= limit) {
			break
		}
		offset += pageSize
	}

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Playlist retrieves metadata for a single playlist.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.PlaylistSummary, error) {
	endpoint := fmt.Sprintf("/playlists/%s?fields=id,name,uri,owner(id,display_name),tracks(total)", playlistID)

	var response SpotifySimplePlaylist
	if _, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, err
	}

	summary := convertPlaylists([]*SpotifySimplePlaylist{&response})
	return &summary[0], nil
}

// CollectionPage retrieves one raw page of playlist items.
func (s *SpotifyService) CollectionPage(ctx context.Context, playlistID string, offset, limit int) (*CollectionPage, error) {
	endpoint := fmt.Sprintf(
		"/playlists/%s/tracks?offset=%d&limit=%d&fields=total,items(track(id,name,artists(name),album(name,release_date)))&market=from_token",
		playlistID, offset, limit,
	)

	var response SpotifyPlaylistItemsPage
	if _, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	page := &CollectionPage{
		Items: make([]models.Track, 0, len(response.Items)),
		Total: response.Total,
	}
	for _, item := range response.Items {
		page.Items = append(page.Items, convertTrack(item.Track))
	}

	return page, nil
}

// Devices lists the playback devices currently visible to the user.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(response.Devices))
	for _, d := range response.Devices {
		devices = append(devices, models.Device{
			ID:             d.ID,
			Name:           d.Name,
			Type:           d.Type,
			Active:         d.IsActive,
			SupportsVolume: d.SupportsVolume,
			VolumePercent:  d.VolumePercent,
		})
	}

	return devices, nil
}

// CurrentPlayback reads the player snapshot. A 204 response means no active
// playback and yields (nil, nil).
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error) {
	var response SpotifyPlaybackState
	status, err := s.doRequest(ctx, http.MethodGet, "/me/player?market=from_token", nil, &response)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}

	snapshot := &models.PlaybackSnapshot{
		Playing:        response.IsPlaying,
		Shuffle:        response.ShuffleState,
		DeviceID:       response.Device.ID,
		DeviceName:     response.Device.Name,
		SupportsVolume: response.Device.SupportsVolume,
		VolumePercent:  response.Device.VolumePercent,
		ProgressMS:     response.ProgressMS,
		FetchedAt:      time.Now(),
	}

	if response.Item != nil {
		track := convertTrack(response.Item)
		snapshot.Track = &track
		duration := response.Item.DurationMS
		if duration > 0 {
			snapshot.DurationMS = &duration
		}
	}

	return snapshot, nil
}

type playbackOffset struct {
	URI string `json:"uri"`
}

type startPlaybackBody struct {
	ContextURI string          `json:"context_uri,omitempty"`
	Offset     *playbackOffset `json:"offset,omitempty"`
}

// StartPlayback begins playing contextURI on the device, starting at offsetURI when given.
func (s *SpotifyService) StartPlayback(ctx context.Context, deviceID, contextURI, offsetURI string) error {
	body := startPlaybackBody{ContextURI: contextURI}
	if offsetURI != "" {
		body.Offset = &playbackOffset{URI: offsetURI}
	}

	_, err := s.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/play", deviceID), body, nil)
	return err
}

// ResumePlayback resumes the current context on the device.
func (s *SpotifyService) ResumePlayback(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/play", deviceID), nil, nil)
	return err
}

func (s *SpotifyService) Pause(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/pause", deviceID), nil, nil)
	return err
}

func (s *SpotifyService) Next(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPost, playerEndpoint("/me/player/next", deviceID), nil, nil)
	return err
}

func (s *SpotifyService) Previous(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPost, playerEndpoint("/me/player/previous", deviceID), nil, nil)
	return err
}

func (s *SpotifyService) SetShuffle(ctx context.Context, state bool, deviceID string) error {
	endpoint := fmt.Sprintf("/me/player/shuffle?state=%t", state)
	if deviceID != "" {
		endpoint += "&device_id=" + url.QueryEscape(deviceID)
	}
	_, err := s.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
	return err
}

func (s *SpotifyService) SetVolume(ctx context.Context, percent int, deviceID string) error {
	endpoint := fmt.Sprintf("/me/player/volume?volume_percent=%d", percent)
	if deviceID != "" {
		endpoint += "&device_id=" + url.QueryEscape(deviceID)
	}
	_, err := s.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
	return err
}

// UserProfile fetches the authenticated user's id and display name, used to
// validate a stored token.
func (s *SpotifyService) UserProfile(ctx context.Context) (string, error) {
	var response owner
	if _, err := s.doRequest(ctx, http.MethodGet, "/me", nil, &response); err != nil {
		return "", err
	}
	if response.DisplayName != "" {
		return response.DisplayName, nil
	}
	return response.ID, nil
}

func playerEndpoint(path, deviceID string) string {
	if deviceID == "" {
		return path
	}
	return path + "?device_id=" + url.QueryEscape(deviceID)
}

// convertPlaylists maps API playlist objects to summaries, dropping null
// entries search responses pad short pages with.
func convertPlaylists(items []*SpotifySimplePlaylist) []models.PlaylistSummary {
	summaries := make([]models.PlaylistSummary, 0, len(items))
	for _, sp := range items {
		if sp == nil || sp.ID == "" {
			continue
		}
		name := sp.Owner.DisplayName
		if name == "" {
			name = sp.Owner.ID
		}
		summaries = append(summaries, models.PlaylistSummary{
			ID:         sp.ID,
			Name:       sp.Name,
			Owner:      name,
			TrackCount: sp.Tracks.Total,
			URI:        sp.URI,
		})
	}
	return summaries
}

// convertTrack maps an API track to the domain model. A nil or malformed
// track converts to a zero-valued Track that fails models.Track.Valid.
func convertTrack(st *SpotifyTrack) models.Track {
	if st == nil {
		return models.Track{}
	}

	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	return models.Track{
		ID:        st.ID,
		Title:     st.Name,
		Artists:   artists,
		Album:     st.Album.Name,
		AlbumYear: models.ParseAlbumYear(st.Album.ReleaseDate),
	}
}
