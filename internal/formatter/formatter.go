// package formatter renders bookmarks and listening history as terminal tables, CSV, Markdown or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/repositories"
	"github.com/desertthunder/spotkey/internal/shared"
)

// Output formats accepted by [Bookmarks] and [History].
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

const timeLayout = "2006-01-02 15:04"

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Padding(0, 1)
)

// FormatPosition renders milliseconds as m:ss.
func FormatPosition(ms int) string {
	d := time.Duration(max(ms, 0)) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// Bookmarks renders slots in the requested format.
func Bookmarks(bookmarks []models.Bookmark, format string) ([]byte, error) {
	headers := []string{"Slot", "Key", "Playlist", "Track", "Position"}
	rows := make([][]string, len(bookmarks))
	for i, b := range bookmarks {
		rows[i] = []string{strconv.Itoa(b.Slot), b.Key, b.PlaylistName, b.TrackRef, FormatPosition(b.PositionMS)}
		if b.Empty() {
			rows[i][2], rows[i][3], rows[i][4] = "", "(empty)", ""
		}
	}

	switch format {
	case FormatTable, "":
		return []byte(render(headers, rows, func(row int) bool { return bookmarks[row].Empty() })), nil
	case FormatCSV:
		return toCSV(headers, rows)
	case FormatJSON:
		type bookmarkJSON struct {
			Slot         int    `json:"slot"`
			Key          string `json:"key"`
			PlaylistRef  string `json:"playlist_ref,omitempty"`
			PlaylistName string `json:"playlist_name,omitempty"`
			TrackRef     string `json:"track_ref,omitempty"`
			PositionMS   int    `json:"position_ms"`
		}
		out := make([]bookmarkJSON, len(bookmarks))
		for i, b := range bookmarks {
			out[i] = bookmarkJSON{b.Slot, b.Key, b.PlaylistRef, b.PlaylistName, b.TrackRef, b.PositionMS}
		}
		return toJSON(out)
	case FormatMarkdown:
		return toMarkdown("Bookmarks", headers, rows), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// History renders journal rows in the requested format.
func History(entries []*models.HistoryEntry, format string) ([]byte, error) {
	headers := []string{"When", "Kind", "Track", "Artists", "Context", "Position"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.CreatedAt().Local().Format(timeLayout),
			string(e.Kind),
			firstNonEmpty(e.TrackName, e.TrackID),
			e.Artists,
			e.ContextRef,
			FormatPosition(e.PositionMS),
		}
	}

	switch format {
	case FormatTable, "":
		return []byte(render(headers, rows, nil)), nil
	case FormatCSV:
		return toCSV(headers, rows)
	case FormatJSON:
		type entryJSON struct {
			ID         string    `json:"id"`
			Kind       string    `json:"kind"`
			TrackID    string    `json:"track_id"`
			TrackName  string    `json:"track_name,omitempty"`
			Artists    string    `json:"artists,omitempty"`
			ContextRef string    `json:"context_ref,omitempty"`
			PositionMS int       `json:"position_ms"`
			Slot       int       `json:"slot"`
			CreatedAt  time.Time `json:"created_at"`
		}
		out := make([]entryJSON, len(entries))
		for i, e := range entries {
			out[i] = entryJSON{e.ID(), string(e.Kind), e.TrackID, e.TrackName, e.Artists, e.ContextRef, e.PositionMS, e.Slot, e.CreatedAt()}
		}
		return toJSON(out)
	case FormatMarkdown:
		return toMarkdown("Listening history", headers, rows), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// PlayCounts renders the most played tracks in the requested format.
func PlayCounts(counts []repositories.PlayCount, format string) ([]byte, error) {
	headers := []string{"Plays", "Track", "Artists", "Last played"}
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{strconv.Itoa(c.Plays), firstNonEmpty(c.TrackName, c.TrackID), c.Artists, c.LastPlayed.Local().Format(timeLayout)}
	}

	switch format {
	case FormatTable, "":
		return []byte(render(headers, rows, nil)), nil
	case FormatCSV:
		return toCSV(headers, rows)
	case FormatJSON:
		return toJSON(counts)
	case FormatMarkdown:
		return toMarkdown("Most played", headers, rows), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func render(headers []string, rows [][]string, dim func(row int) bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#3E3E3E"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case dim != nil && dim(row):
				return emptyStyle
			default:
				return cellStyle
			}
		})
	return t.Render() + "\n"
}

func toCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV records: %w", err)
	}
	return buf.Bytes(), nil
}

func toJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func toMarkdown(title string, headers []string, rows [][]string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "| %s |\n", strings.Join(headers, " | "))
	fmt.Fprintf(&buf, "|%s\n", strings.Repeat(" --- |", len(headers)))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		fmt.Fprintf(&buf, "| %s |\n", strings.Join(cells, " | "))
	}
	return buf.Bytes()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
