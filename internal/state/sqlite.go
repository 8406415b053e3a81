package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteCollectorStore is a collector store backed by a SQLite file.
// Entries are stored as JSON, so values round-trip through encoding/json:
// integer values come back as float64 and nested maps as map[string]any.
// Processors that care about exact numeric types should use the memory
// backend.
type SQLiteCollectorStore struct {
	db *sql.DB
}

// OpenSQLiteCollectorStore creates or opens a staging database at path.
// Existing staging rows are cleared: the store is rebuilt on every run.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func OpenSQLiteCollectorStore(path string) (*SQLiteCollectorStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open staging database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to staging database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY during the collect phase.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply staging schema: %w", err)
	}
	for _, table := range []string{"entries", "relations"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			db.Close()
			return nil, fmt.Errorf("reset staging table %s: %w", table, err)
		}
	}

	return &SQLiteCollectorStore{db: db}, nil
}

// Close closes the staging database.
func (s *SQLiteCollectorStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DefineField implements CollectorStore. INSERT OR REPLACE gives the same
// last-write-wins behavior as the memory backend.
func (s *SQLiteCollectorStore) DefineField(ctx context.Context, namespace, category, id string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry %s/%s/%s: %w", namespace, category, id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO entries (namespace, category, id, entry)
		VALUES (?, ?, ?, ?)
	`, namespace, category, id, string(raw))
	if err != nil {
		return fmt.Errorf("store entry %s/%s/%s: %w", namespace, category, id, err)
	}
	return nil
}

// DefineRelation implements CollectorStore.
func (s *SQLiteCollectorStore) DefineRelation(ctx context.Context, namespace, category, fromID, toID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO relations (namespace, category, from_id, to_id)
		VALUES (?, ?, ?, ?)
	`, namespace, category, fromID, toID)
	if err != nil {
		return fmt.Errorf("store relation %s/%s/%s: %w", namespace, category, fromID, err)
	}
	return nil
}

// Entries implements CollectorStore. Rows are ordered by id so repeated
// traversals see the same sequence, though callers must not rely on order.
func (s *SQLiteCollectorStore) Entries(ctx context.Context, namespace, category string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry
		FROM entries
		WHERE namespace = ? AND category = ?
		ORDER BY id COLLATE BINARY ASC
	`, namespace, category)
	if err != nil {
		return nil, fmt.Errorf("query entries %s/%s: %w", namespace, category, err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode entry %s/%s/%s: %w", namespace, category, id, err)
		}
		items = append(items, Item{ID: id, Entry: entry})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries %s/%s: %w", namespace, category, err)
	}
	return items, nil
}

// Relations implements CollectorStore, reading DefaultCategory only.
func (s *SQLiteCollectorStore) Relations(ctx context.Context, namespace string) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id
		FROM relations
		WHERE namespace = ? AND category = ?
		ORDER BY from_id COLLATE BINARY ASC
	`, namespace, DefaultCategory)
	if err != nil {
		return nil, fmt.Errorf("query relations %s: %w", namespace, err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var link Link
		if err := rows.Scan(&link.FromID, &link.ToID); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations %s: %w", namespace, err)
	}
	return links, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
