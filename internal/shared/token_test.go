package shared

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}
	second, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}

	if len(first) != 32 {
		t.Errorf("state length = %d, want 32 hex chars", len(first))
	}
	if first == second {
		t.Error("consecutive states should differ")
	}
}

func TestTokenStorage(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "token.json")
		token := &oauth2.Token{
			AccessToken:  "access-123",
			RefreshToken: "refresh-456",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
		}

		if err := SaveToken(path, token); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		loaded, err := LoadToken(path)
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if loaded.AccessToken != token.AccessToken || loaded.RefreshToken != token.RefreshToken {
			t.Errorf("loaded token = %+v, want saved values", loaded)
		}

		if runtime.GOOS != "windows" {
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("failed to stat token file: %v", err)
			}
			if info.Mode().Perm() != 0600 {
				t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
			}
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadToken(filepath.Join(t.TempDir(), "token.json"))
		if !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("err = %v, want ErrNotAuthenticated", err)
		}
	})

	t.Run("nil token", func(t *testing.T) {
		if err := SaveToken(filepath.Join(t.TempDir(), "token.json"), nil); err == nil {
			t.Error("expected error saving nil token")
		}
	})
}
