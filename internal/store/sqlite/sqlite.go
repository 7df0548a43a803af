// Package sqlite opens a browser profile's cookie database (Firefox
// cookies.sqlite or a Chromium-family Cookies file) as a host cookie store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/crumbs/internal/cookie"
	crumbserr "github.com/hpungsan/crumbs/internal/errors"
)

// Dialect names the cookie table layout found in the database.
type Dialect string

const (
	DialectFirefox  Dialect = "firefox"
	DialectChromium Dialect = "chromium"
)

// Store reads and deletes rows of a browser cookie database.
type Store struct {
	db      *sql.DB
	path    string
	dialect Dialect
	schema  schema
}

// Open opens the cookie database at path and detects its dialect.
// The browser may hold the file open; busy_timeout lets writes wait for its lock.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, crumbserr.NewNotFound(path)
		}
		return nil, fmt.Errorf("stat cookie database: %w", err)
	}

	dsn := "file:" + filepath.ToSlash(path) + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie database: %w", err)
	}
	// One connection serializes the concurrent removals of a batch and avoids
	// lock upgrade deadlocks between our own connections.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, crumbserr.NewStoreUnavailable(path, err)
	}

	dialect, err := detectDialect(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	sch, err := loadSchema(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path, dialect: dialect, schema: sch}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Dialect returns the detected table layout.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// List implements store.Store. Rows come back in rowid order.
func (s *Store) List(ctx context.Context, filter cookie.Filter) ([]cookie.Record, error) {
	query := s.schema.selectSQL()
	var args []any
	if filter.Domain != "" {
		query += " WHERE " + s.schema.hostCol + " = ?"
		args = append(args, filter.Domain)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	defer rows.Close()

	out := make([]cookie.Record, 0)
	for rows.Next() {
		rec, err := s.schema.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cookies: %w", err)
	}
	return out, nil
}

// Remove implements store.Store. It deletes the single row matching the
// query's host, name, path and store, and returns it.
func (s *Store) Remove(ctx context.Context, q cookie.RemoveQuery) (*cookie.Record, error) {
	_, domain, path, err := cookie.ParseRemoveURL(q.URL)
	if err != nil {
		return nil, crumbserr.NewInvalidRequest(err.Error())
	}

	query := fmt.Sprintf(
		"DELETE FROM %[1]s WHERE rowid = (SELECT rowid FROM %[1]s WHERE %[2]s = ? AND name = ? AND path = ? AND %[3]s = ? LIMIT 1) RETURNING %[4]s",
		s.schema.table, s.schema.hostCol, s.schema.partitionExpr, s.schema.columns(),
	)
	row := s.db.QueryRowContext(ctx, query, domain, q.Name, path, s.schema.partitionFor(q.StoreID))

	rec, err := s.schema.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove cookie: %w", err)
	}
	return &rec, nil
}

func detectDialect(ctx context.Context, db *sql.DB) (Dialect, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('moz_cookies', 'cookies')")
	if err != nil {
		return "", fmt.Errorf("failed to read schema: %w", err)
	}
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("failed to read schema: %w", err)
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read schema: %w", err)
	}

	switch {
	case found["moz_cookies"]:
		return DialectFirefox, nil
	case found["cookies"]:
		return DialectChromium, nil
	default:
		return "", crumbserr.NewInvalidRequest("not a browser cookie database: no moz_cookies or cookies table")
	}
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to read table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
