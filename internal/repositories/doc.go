// Package repositories implements SQLite persistence for the listening journal.
//
// Key Implementations:
//   - [HistoryRepository] : append-only journal of track changes and bookmark use
//   - [Journal] : adapter used by the poll loop and the bookmark manager
//
// Rows are never updated or deleted; the journal only grows. Aggregates such as play counts
// are read from SQL views created by the migrations in internal/shared/sql.
package repositories
