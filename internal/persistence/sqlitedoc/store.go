// Package sqlitedoc stores activity records as JSON documents in SQLite,
// keyed by an opaque id plus username. It plays the role of the history
// document store behind the pipeline.
package sqlitedoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	_ "modernc.org/sqlite"

	"example.com/carbonlog/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS activity_logs (
	id       TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	doc      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS activity_logs_username_idx ON activity_logs (username);`

// Store wraps a SQLite database holding activity-log documents.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database in dataDir. Pass ":memory:"
// as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "history.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRecord persists one activity record as a JSON document.
func (s *Store) SaveRecord(ctx context.Context, record domain.ActivityRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, username, doc) VALUES (?, ?, ?)`,
		record.ID, record.Username, string(doc))
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// storedDoc shadows ActivityRecord with a loose timestamp so documents
// written by earlier schema versions, which stored timestamps as strings,
// still load.
type storedDoc struct {
	ID            string              `json:"_id"`
	Username      string              `json:"username"`
	InputText     string              `json:"input_text"`
	ActivityType  domain.ActivityType `json:"activity_type"`
	Key           string              `json:"key"`
	Quantity      float64             `json:"quantity"`
	Unit          string              `json:"unit"`
	CO2e          float64             `json:"co2e"`
	IsVerified    bool                `json:"is_verified"`
	Timestamp     interface{}         `json:"timestamp"`
	DateReadable  string              `json:"date_readable"`
	SourceGroupID string              `json:"source_group_id"`
}

// ListByUser returns a user's records ordered by timestamp, newest first.
// Unparseable timestamps coerce to zero and sort last.
func (s *Store) ListByUser(ctx context.Context, username string, limit int) ([]domain.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM activity_logs WHERE username = ?`, username)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.ActivityRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc storedDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		records = append(records, domain.ActivityRecord{
			ID:            doc.ID,
			Username:      doc.Username,
			InputText:     doc.InputText,
			ActivityType:  doc.ActivityType,
			Key:           doc.Key,
			Quantity:      doc.Quantity,
			Unit:          doc.Unit,
			CO2e:          doc.CO2e,
			IsVerified:    doc.IsVerified,
			Timestamp:     coerceTimestamp(doc.Timestamp),
			DateReadable:  doc.DateReadable,
			SourceGroupID: doc.SourceGroupID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// coerceTimestamp accepts numeric or string timestamps, defaulting to 0.
func coerceTimestamp(value interface{}) int64 {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return int64(parsed)
		}
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return int64(parsed)
		}
	}
	return 0
}
