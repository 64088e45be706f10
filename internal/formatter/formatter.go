// package formatter provides display text helpers and collection export formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/splay/internal/models"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "..."

// Truncate fits text into width terminal cells, appending an ellipsis marker
// when content was cut. Never panics on narrow widths; width <= len(ellipsis)
// degrades to hard cutting.
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	if width <= len(ellipsis) {
		return runewidth.Truncate(text, width, "")
	}
	return runewidth.Truncate(text, width, ellipsis)
}

// Duration renders milliseconds as m:ss.
func Duration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// AlbumLine renders "Album (1999)", falling back to "----" for an unknown year.
func AlbumLine(track models.Track) string {
	year := "----"
	if track.AlbumYear != nil {
		year = strconv.Itoa(*track.AlbumYear)
	}
	if track.Album == "" {
		return fmt.Sprintf("Unknown Album (%s)", year)
	}
	return fmt.Sprintf("%s (%s)", track.Album, year)
}

// ExportToCSV converts a Collection to CSV with columns: Position, ID, Title, Artists, Album, Year
func ExportToCSV(collection *models.Collection) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "ID", "Title", "Artists", "Album", "Year"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range collection.Tracks {
		year := ""
		if track.AlbumYear != nil {
			year = strconv.Itoa(*track.AlbumYear)
		}
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Title,
			track.ArtistLine(),
			track.Album,
			year,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Collection to indented JSON.
func ExportToJSON(collection *models.Collection) ([]byte, error) {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return data, nil
}

// ExportToMarkdown converts a Collection to a Markdown track listing.
func ExportToMarkdown(collection *models.Collection) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", collection.Name))
	if collection.Owner != "" {
		buf.WriteString(fmt.Sprintf("**Owner**: %s\n\n", collection.Owner))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(collection.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range collection.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)\n", i+1, track.ArtistLine(), track.Title, AlbumLine(track)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Collection to plain text.
func ExportToText(collection *models.Collection) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", collection.Name))
	if collection.Owner != "" {
		buf.WriteString(fmt.Sprintf("Owner: %s\n", collection.Owner))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(collection.Tracks)))

	for i, track := range collection.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.ArtistLine(), track.Title))
	}

	return buf.Bytes(), nil
}

// Export renders the collection in the named format: json, csv, markdown, or txt.
func Export(collection *models.Collection, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return ExportToJSON(collection)
	case "csv":
		return ExportToCSV(collection)
	case "markdown", "md":
		return ExportToMarkdown(collection)
	case "txt", "text":
		return ExportToText(collection)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}
