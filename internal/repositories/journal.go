package repositories

import (
	"context"

	"github.com/desertthunder/spotkey/internal/models"
)

// Journal records history entries on behalf of the poll loop and the bookmark manager.
//
// Entries without a track are dropped silently; they carry nothing worth keeping.
type Journal struct {
	repo *HistoryRepository
}

// NewJournal creates a new Journal with the given repository
func NewJournal(repo *HistoryRepository) *Journal {
	return &Journal{repo: repo}
}

// Record persists entry.
func (j *Journal) Record(ctx context.Context, entry *models.HistoryEntry) error {
	if entry == nil || entry.TrackID == "" {
		return nil
	}
	return j.repo.CreateContext(ctx, entry)
}
