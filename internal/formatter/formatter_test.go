package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/repositories"
	"github.com/desertthunder/spotkey/internal/shared"
	th "github.com/desertthunder/spotkey/internal/testing"
)

func sampleBookmarks() []models.Bookmark {
	return []models.Bookmark{
		{Slot: 0, Key: "0", PlaylistRef: "spotify:playlist:p1", PlaylistName: "Morning", TrackRef: "t1", PositionMS: 83_000},
		{Slot: 1, Key: "1"},
	}
}

func sampleHistory() []*models.HistoryEntry {
	e := models.RestoreHistoryEntry("h1", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	e.Kind = models.HistoryTrackChange
	e.TrackID = "t1"
	e.TrackName = "Song | One"
	e.Artists = "Artist"
	e.PositionMS = 5_000
	return []*models.HistoryEntry{e}
}

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{83_000, "1:23"},
		{3_600_000, "60:00"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatPosition(tt.ms); got != tt.want {
			t.Errorf("FormatPosition(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestBookmarks(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		data, err := Bookmarks(sampleBookmarks(), FormatTable)
		if err != nil {
			t.Fatalf("Bookmarks failed: %v", err)
		}
		output := string(data)
		for _, want := range []string{"Slot", "Morning", "1:23", "(empty)"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("csv", func(t *testing.T) {
		data, err := Bookmarks(sampleBookmarks(), FormatCSV)
		if err != nil {
			t.Fatalf("Bookmarks failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[0] != "Slot,Key,Playlist,Track,Position" {
			t.Errorf("unexpected header %q", lines[0])
		}
	})

	t.Run("json", func(t *testing.T) {
		data, err := Bookmarks(sampleBookmarks(), FormatJSON)
		if err != nil {
			t.Fatalf("Bookmarks failed: %v", err)
		}
		var out []map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if out[0]["playlist_ref"] != "spotify:playlist:p1" {
			t.Errorf("unexpected first bookmark %v", out[0])
		}
		if _, ok := out[1]["track_ref"]; ok {
			t.Error("empty slot should omit track_ref")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := Bookmarks(nil, "yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("markdown escapes pipes", func(t *testing.T) {
		data, err := History(sampleHistory(), FormatMarkdown)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if !strings.Contains(string(data), `Song \| One`) {
			t.Errorf("expected escaped pipe:\n%s", data)
		}
	})

	t.Run("json keeps ids", func(t *testing.T) {
		data, err := History(sampleHistory(), FormatJSON)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if !strings.Contains(string(data), `"id": "h1"`) {
			t.Errorf("expected id in JSON:\n%s", data)
		}
	})
}

func TestPlayCounts(t *testing.T) {
	counts := []repositories.PlayCount{{TrackID: "t1", TrackName: "One", Artists: "A", Plays: 3}}

	data, err := PlayCounts(counts, FormatCSV)
	if err != nil {
		t.Fatalf("PlayCounts failed: %v", err)
	}
	if !strings.Contains(string(data), "3,One,A") {
		t.Errorf("unexpected CSV:\n%s", data)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bookmarks.csv")
	if err := WriteFile(path, []byte("Slot\n")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	th.AssertFileExists(t, path)
}
