package collector

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/amolyst/amolyst/internal/state"
)

// SQLTarget identifies a database to collect from. Driver must be a
// registered database/sql driver; sqlite3 is linked in, other drivers can
// be added with a blank import.
type SQLTarget struct {
	Driver string
	DSN    string
}

// SQLSource runs one query against a target and feeds each row, converted
// to an Entry keyed by column name, to a callback.
type SQLSource struct {
	Target SQLTarget
	Query  string
}

// Each opens the target, executes the query and invokes fn once per row.
// Any error, including one returned by fn, aborts iteration and is
// returned unwrapped enough for errors.Is checks.
func (s SQLSource) Each(ctx context.Context, fn func(state.Entry) error) error {
	db, err := sql.Open(s.Target.Driver, s.Target.DSN)
	if err != nil {
		return fmt.Errorf("open %s database: %w", s.Target.Driver, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.Query)
	if err != nil {
		return fmt.Errorf("query source: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read columns: %w", err)
	}

	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		entry := make(state.Entry, len(columns))
		for i, column := range columns {
			// First occurrence wins: aliased projections precede the bare
			// table columns in queries like "x AS name, t.*", and the alias
			// is the value the pipeline wants.
			if _, exists := entry[column]; exists {
				continue
			}
			entry[column] = normalizeSQLValue(values[i])
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// normalizeSQLValue converts driver raw bytes to string so entries hold
// printable values regardless of driver.
func normalizeSQLValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
