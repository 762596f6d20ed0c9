package models

import (
	"fmt"
	"time"
)

// HistoryKind classifies a journal row.
type HistoryKind string

const (
	HistoryTrackChange  HistoryKind = "track_change"
	HistoryBookmarkSave HistoryKind = "bookmark_save"
	HistoryBookmarkLoad HistoryKind = "bookmark_load"
)

// HistoryEntry is one row of the local listening journal.
type HistoryEntry struct {
	id         string
	Kind       HistoryKind
	TrackID    string
	TrackName  string
	Artists    string
	ContextRef string
	PositionMS int
	Slot       int
	createdAt  time.Time
}

// NewHistoryEntry creates a journal row for the given track.
func NewHistoryEntry(kind HistoryKind, track *Track, contextRef string) *HistoryEntry {
	e := &HistoryEntry{Kind: kind, ContextRef: contextRef, Slot: -1, createdAt: time.Now().UTC()}
	if track != nil {
		e.TrackID = track.ID
		e.TrackName = track.Name
		e.Artists = track.ArtistNames()
	}
	return e
}

// RestoreHistoryEntry rebuilds a persisted row.
func RestoreHistoryEntry(id string, createdAt time.Time) *HistoryEntry {
	return &HistoryEntry{id: id, createdAt: createdAt, Slot: -1}
}

func (e *HistoryEntry) ID() string           { return e.id }
func (e *HistoryEntry) SetID(id string)      { e.id = id }
func (e *HistoryEntry) CreatedAt() time.Time { return e.createdAt }

// Validate checks the entry has a known kind and a track.
func (e *HistoryEntry) Validate() error {
	switch e.Kind {
	case HistoryTrackChange, HistoryBookmarkSave, HistoryBookmarkLoad:
	default:
		return fmt.Errorf("unknown history kind %q", e.Kind)
	}
	if e.TrackID == "" {
		return fmt.Errorf("history entry requires a track id")
	}
	if e.PositionMS < 0 {
		return fmt.Errorf("position must be non-negative, got %d", e.PositionMS)
	}
	return nil
}
