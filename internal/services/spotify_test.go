package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/splay/internal/shared"
	"golang.org/x/oauth2"
)

func newTestService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	srv.SetBaseURL(ts.URL)
	srv.token = &oauth2.Token{AccessToken: "test_token"}
	srv.httpClient = ts.Client()

	return srv, ts
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("With Valid Credentials", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "id",
			"client_secret": "secret",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if srv.Name() != "Spotify" {
			t.Errorf("expected service name 'Spotify', got %s", srv.Name())
		}
	})

	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := NewSpotifyService(map[string]string{"client_secret": "secret"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Missing Client Secret", func(t *testing.T) {
		_, err := NewSpotifyService(map[string]string{"client_id": "id"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("AuthURL", func(t *testing.T) {
		srv, _ := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "secret",
		})

		authURL := srv.AuthURL("test_state")
		for _, want := range []string{"accounts.spotify.com", "test_client_id", "test_state"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL missing %q: %s", want, authURL)
			}
		}
	})
}

func TestDoRequest(t *testing.T) {
	t.Run("Requires Authentication", func(t *testing.T) {
		srv, _ := NewSpotifyService(map[string]string{
			"client_id":     "id",
			"client_secret": "secret",
		})

		_, err := srv.Devices(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Bearer Header Set", func(t *testing.T) {
		var gotAuth string
		srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"devices":[]}`))
		}))

		if _, err := srv.Devices(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAuth != "Bearer test_token" {
			t.Errorf("unexpected auth header %q", gotAuth)
		}
	})

	t.Run("Rate Limit Carries Retry-After", func(t *testing.T) {
		srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"status":429,"message":"rate limited"}}`))
		}))

		_, err := srv.Devices(context.Background())
		apiErr, ok := AsAPIError(err)
		if !ok {
			t.Fatalf("expected APIError, got %v", err)
		}
		if !apiErr.RateLimited() {
			t.Error("expected RateLimited() to be true")
		}
		if apiErr.RetryAfter.Seconds() != 7 {
			t.Errorf("expected 7s retry-after, got %v", apiErr.RetryAfter)
		}
		if !strings.Contains(apiErr.Error(), "rate limited") {
			t.Errorf("expected message in error, got %q", apiErr.Error())
		}
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("Auth Failure Status", func(t *testing.T) {
		srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
		}))

		_, err := srv.Devices(context.Background())
		apiErr, ok := AsAPIError(err)
		if !ok {
			t.Fatalf("expected APIError, got %v", err)
		}
		if !apiErr.AuthFailure() {
			t.Error("expected AuthFailure() to be true")
		}
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

func TestCollectionPage(t *testing.T) {
	srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "offset=0") {
			t.Errorf("expected offset in query, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{
			"total": 3,
			"items": [
				{"track": {"id": "t1", "name": "First", "artists": [{"name": "A"}], "album": {"name": "Alb", "release_date": "2001-05-01"}}},
				{"track": null},
				{"track": {"id": "", "name": "Local File", "artists": []}}
			]
		}`))
	}))

	page, err := srv.CollectionPage(context.Background(), "pl1", 0, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Items) != 3 {
		t.Fatalf("expected raw count 3, got %d", len(page.Items))
	}
	if page.Total != 3 {
		t.Errorf("expected total 3, got %d", page.Total)
	}

	first := page.Items[0]
	if !first.Valid() {
		t.Error("first item should be valid")
	}
	if first.AlbumYear == nil || *first.AlbumYear != 2001 {
		t.Error("expected album year 2001")
	}
	if page.Items[1].Valid() || page.Items[2].Valid() {
		t.Error("null and malformed items should convert to invalid tracks")
	}
}

func TestCurrentPlayback(t *testing.T) {
	t.Run("No Active Playback", func(t *testing.T) {
		srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		snapshot, err := srv.CurrentPlayback(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snapshot != nil {
			t.Error("expected nil snapshot for 204 response")
		}
	})

	t.Run("Playing State", func(t *testing.T) {
		srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"is_playing": true,
				"shuffle_state": true,
				"progress_ms": 1000,
				"device": {"id": "d1", "name": "Kitchen", "type": "Speaker", "is_active": true, "supports_volume": true, "volume_percent": 40},
				"item": {"id": "t9", "name": "Song", "duration_ms": 200000, "artists": [{"name": "B"}], "album": {"name": "Alb", "release_date": "1987"}}
			}`))
		}))

		snapshot, err := srv.CurrentPlayback(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !snapshot.Playing || !snapshot.Shuffle {
			t.Error("expected playing and shuffle flags")
		}
		if snapshot.DeviceID != "d1" || !snapshot.SupportsVolume {
			t.Errorf("unexpected device fields: %+v", snapshot)
		}
		if snapshot.VolumePercent == nil || *snapshot.VolumePercent != 40 {
			t.Error("expected volume percent 40")
		}
		if snapshot.TrackID() != "t9" {
			t.Errorf("unexpected track id %q", snapshot.TrackID())
		}
		if snapshot.DurationMS == nil || *snapshot.DurationMS != 200000 {
			t.Error("expected duration 200000")
		}
	})
}

func TestSearchPlaylists(t *testing.T) {
	srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("type"); got != "playlist" {
			t.Errorf("expected type=playlist, got %q", got)
		}
		w.Write([]byte(`{"playlists": {"items": [
			{"id": "p1", "name": "Mix", "owner": {"id": "u1", "display_name": "User One"}, "tracks": {"total": 12}, "uri": "spotify:playlist:p1"},
			null
		], "total": 1}}`))
	}))

	playlists, err := srv.SearchPlaylists(context.Background(), "mix", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(playlists) != 1 {
		t.Fatalf("expected null entries dropped, got %d items", len(playlists))
	}
	if playlists[0].Owner != "User One" || playlists[0].TrackCount != 12 {
		t.Errorf("unexpected summary: %+v", playlists[0])
	}
}

func TestPlayerCommands(t *testing.T) {
	type call struct {
		method string
		path   string
		query  string
	}

	var last call
	srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = call{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx := context.Background()

	t.Run("StartPlayback", func(t *testing.T) {
		if err := srv.StartPlayback(ctx, "d1", "spotify:playlist:p1", "spotify:track:t1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if last.method != http.MethodPut || last.path != "/me/player/play" {
			t.Errorf("unexpected call %+v", last)
		}
		if !strings.Contains(last.query, "device_id=d1") {
			t.Errorf("expected device_id in query, got %q", last.query)
		}
	})

	t.Run("Next Uses POST", func(t *testing.T) {
		if err := srv.Next(ctx, "d1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if last.method != http.MethodPost || last.path != "/me/player/next" {
			t.Errorf("unexpected call %+v", last)
		}
	})

	t.Run("SetShuffle Encodes State", func(t *testing.T) {
		if err := srv.SetShuffle(ctx, true, "d1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(last.query, "state=true") || !strings.Contains(last.query, "device_id=d1") {
			t.Errorf("unexpected query %q", last.query)
		}
	})

	t.Run("SetVolume Encodes Percent", func(t *testing.T) {
		if err := srv.SetVolume(ctx, 65, "d1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(last.query, "volume_percent=65") {
			t.Errorf("unexpected query %q", last.query)
		}
	})
}

func TestCurrentUserPlaylists(t *testing.T) {
	pages := 0
	srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		offset := r.URL.Query().Get("offset")
		if offset == "0" {
			// full page of 50 keeps pagination going
			var b strings.Builder
			b.WriteString(`{"items": [`)
			for i := 0; i < 50; i++ {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(`{"id": "p` + strings.Repeat("x", i%3) + `", "name": "P", "owner": {"id": "u"}, "tracks": {"total": 1}}`)
			}
			b.WriteString(`], "total": 51}`)
			w.Write([]byte(b.String()))
			return
		}
		w.Write([]byte(`{"items": [{"id": "last", "name": "Last", "owner": {"id": "u"}, "tracks": {"total": 1}}], "total": 51}`))
	}))

	playlists, err := srv.CurrentUserPlaylists(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pages != 2 {
		t.Errorf("expected 2 page fetches, got %d", pages)
	}
	if len(playlists) != 51 {
		t.Errorf("expected 51 playlists, got %d", len(playlists))
	}
	if playlists[50].ID != "last" {
		t.Errorf("expected final playlist from second page, got %+v", playlists[50])
	}
}
