package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/domspect/internal/dbopen"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS inspections (
	id         TEXT PRIMARY KEY,
	page_url   TEXT NOT NULL,
	tag        TEXT NOT NULL,
	dom_id     TEXT NOT NULL DEFAULT '',
	selector   TEXT NOT NULL,
	classes    TEXT NOT NULL DEFAULT '[]',
	computed   TEXT NOT NULL DEFAULT '{}',
	inline     TEXT NOT NULL DEFAULT '{}',
	categories TEXT NOT NULL DEFAULT '{}',
	at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inspections_at ON inspections(at);
`

// SQLite persists inspections to a local database so sessions can be
// replayed after the browser is gone.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) the inspection database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(sqliteSchema))
	if err != nil {
		return nil, fmt.Errorf("sink: open sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

// NewSQLiteDB wraps an already-open database. Used by tests.
func NewSQLiteDB(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("sink: migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Send(ctx context.Context, rec Record) error {
	classes, _ := json.Marshal(rec.Inspection.Classes)
	computed, _ := json.Marshal(rec.Inspection.Computed)
	inline, _ := json.Marshal(rec.Inspection.Inline)
	categories, _ := json.Marshal(rec.Inspection.Categories)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO inspections
			(id, page_url, tag, dom_id, selector, classes, computed, inline, categories, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PageURL,
		rec.Inspection.Tag, rec.Inspection.DOMID, rec.Inspection.Selector,
		string(classes), string(computed), string(inline), string(categories),
		rec.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("sink: insert inspection: %w", err)
	}
	return nil
}

// Recent returns up to n inspections, newest first.
func (s *SQLite) Recent(ctx context.Context, n int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_url, tag, dom_id, selector, classes, computed, inline, categories, at
		FROM inspections ORDER BY at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sink: query inspections: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var classes, computed, inline, categories string
		var atMilli int64
		if err := rows.Scan(&rec.ID, &rec.PageURL,
			&rec.Inspection.Tag, &rec.Inspection.DOMID, &rec.Inspection.Selector,
			&classes, &computed, &inline, &categories, &atMilli); err != nil {
			return nil, fmt.Errorf("sink: scan inspection: %w", err)
		}
		json.Unmarshal([]byte(classes), &rec.Inspection.Classes)
		json.Unmarshal([]byte(computed), &rec.Inspection.Computed)
		json.Unmarshal([]byte(inline), &rec.Inspection.Inline)
		json.Unmarshal([]byte(categories), &rec.Inspection.Categories)
		rec.At = time.UnixMilli(atMilli)
		rec.Inspection.At = rec.At
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
