// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// parseTimestamp reads a timestamp that sqlite returned as text, as it does for aggregates.
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case nil:
		return time.Time{}, nil
	case []byte:
		return parseTimestamp(string(t))
	case string:
		for _, layout := range sqlite3.SQLiteTimestampFormats {
			if ts, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", t)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}
