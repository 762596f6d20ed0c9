package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/shared"
)

var _ models.Repository[*models.HistoryEntry] = (*HistoryRepository)(nil)

const historyColumns = "id, kind, track_id, track_name, artists, context_ref, position_ms, slot, created_at"

// PlayCount is one row of the play_counts view.
type PlayCount struct {
	TrackID    string
	TrackName  string
	Artists    string
	Plays      int
	LastPlayed time.Time
}

// HistoryRepository implements models.Repository[*models.HistoryEntry] for the listening journal.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a new [models.HistoryEntry] with a generated ID
func (r *HistoryRepository) Create(entry *models.HistoryEntry) error {
	return r.CreateContext(context.Background(), entry)
}

// CreateContext is [HistoryRepository.Create] bound to ctx.
func (r *HistoryRepository) CreateContext(ctx context.Context, entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	entry.SetID(shared.GenerateID())

	query := `
		INSERT INTO history (` + historyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID(),
		string(entry.Kind),
		entry.TrackID,
		entry.TrackName,
		entry.Artists,
		entry.ContextRef,
		entry.PositionMS,
		entry.Slot,
		entry.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Get retrieves a journal row by ID
func (r *HistoryRepository) Get(id string) (*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE id = ?`

	entry, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: history entry %s", shared.ErrNotFound, id)
	}
	return entry, err
}

// List retrieves journal rows newest first.
//
// Supported criteria: "kind" (string or [models.HistoryKind]), "track_id" (string),
// "since" ([time.Time]) and "limit" (int).
func (r *HistoryRepository) List(criteria map[string]any) ([]*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE 1 = 1`
	args := []any{}

	switch kind := criteria["kind"].(type) {
	case models.HistoryKind:
		if kind != "" {
			query += " AND kind = ?"
			args = append(args, string(kind))
		}
	case string:
		if kind != "" {
			query += " AND kind = ?"
			args = append(args, kind)
		}
	}

	if trackID, ok := criteria["track_id"].(string); ok && trackID != "" {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC())
	}

	query += " ORDER BY created_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// PlayCounts returns the most played tracks from the play_counts view.
func (r *HistoryRepository) PlayCounts(limit int) ([]PlayCount, error) {
	query := `
		SELECT track_id, track_name, artists, plays, last_played
		FROM play_counts
		ORDER BY plays DESC, last_played DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query play counts: %w", err)
	}
	defer rows.Close()

	var counts []PlayCount
	for rows.Next() {
		var (
			pc   PlayCount
			last any
		)
		if err := rows.Scan(&pc.TrackID, &pc.TrackName, &pc.Artists, &pc.Plays, &last); err != nil {
			return nil, fmt.Errorf("failed to scan play count: %w", err)
		}
		if pc.LastPlayed, err = parseTimestamp(last); err != nil {
			return nil, err
		}
		counts = append(counts, pc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

// scan reads one row into a [models.HistoryEntry]
func (r *HistoryRepository) scan(row scanner) (*models.HistoryEntry, error) {
	var (
		id        string
		kind      string
		trackID   string
		trackName string
		artists   string
		ctxRef    string
		position  int
		slot      int
		createdAt time.Time
	)

	err := row.Scan(&id, &kind, &trackID, &trackName, &artists, &ctxRef, &position, &slot, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}

	entry := models.RestoreHistoryEntry(id, createdAt)
	entry.Kind = models.HistoryKind(kind)
	entry.TrackID = trackID
	entry.TrackName = trackName
	entry.Artists = artists
	entry.ContextRef = ctxRef
	entry.PositionMS = position
	entry.Slot = slot
	return entry, nil
}
