package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/splay/internal/models"
)

func intPtr(v int) *int { return &v }

func sampleCollection() *models.Collection {
	return &models.Collection{
		ID:    "pl1",
		Name:  "Evening Mix",
		Owner: "someone",
		Tracks: []models.Track{
			{ID: "t1", Title: "First Song", Artists: []string{"A", "B"}, Album: "Album One", AlbumYear: intPtr(1999)},
			{ID: "t2", Title: "Second Song", Artists: []string{"C"}},
		},
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"Fits", "short", 10, "short"},
		{"Exact", "exact", 5, "exact"},
		{"Cut With Marker", "a very long track title", 10, "a very ..."},
		{"Tiny Width", "abcdef", 2, "ab"},
		{"Zero Width", "abc", 0, ""},
		{"Negative Width", "abc", -1, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truncate(tc.text, tc.width); got != tc.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
			}
		})
	}

	t.Run("Never Exceeds Width", func(t *testing.T) {
		for width := 0; width < 30; width++ {
			got := Truncate("終わらない歌を歌おう wide runes", width)
			if len([]rune(got)) > width {
				t.Fatalf("width %d: result %q too long", width, got)
			}
		}
	})
}

func TestDuration(t *testing.T) {
	cases := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{1000, "0:01"},
		{185000, "3:05"},
		{-5, "0:00"},
	}
	for _, tc := range cases {
		if got := Duration(tc.ms); got != tc.want {
			t.Errorf("Duration(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestAlbumLine(t *testing.T) {
	t.Run("With Year", func(t *testing.T) {
		got := AlbumLine(models.Track{Album: "X", AlbumYear: intPtr(1987)})
		if got != "X (1987)" {
			t.Errorf("unexpected album line %q", got)
		}
	})

	t.Run("Unknown Year", func(t *testing.T) {
		got := AlbumLine(models.Track{Album: "X"})
		if got != "X (----)" {
			t.Errorf("unexpected album line %q", got)
		}
	})
}

func TestExport(t *testing.T) {
	collection := sampleCollection()

	t.Run("CSV", func(t *testing.T) {
		data, err := Export(collection, "csv")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header + 2 records, got %d lines", len(lines))
		}
		if !strings.Contains(lines[1], "First Song") || !strings.Contains(lines[1], "1999") {
			t.Errorf("unexpected first record %q", lines[1])
		}
	})

	t.Run("JSON Default", func(t *testing.T) {
		data, err := Export(collection, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), `"Evening Mix"`) {
			t.Error("expected collection name in JSON output")
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, err := Export(collection, "md")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(string(data), "# Evening Mix") {
			t.Error("expected markdown heading")
		}
		if !strings.Contains(string(data), "1. A, B - First Song") {
			t.Errorf("unexpected markdown body:\n%s", data)
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, err := Export(collection, "txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), "2. C - Second Song") {
			t.Errorf("unexpected text body:\n%s", data)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		if _, err := Export(collection, "yaml"); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}
