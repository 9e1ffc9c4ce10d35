package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/petra-dev/upwatch/internal/checker"
	"github.com/petra-dev/upwatch/internal/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS services (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    mode            TEXT NOT NULL CHECK(mode IN ('structured-api', 'markup-page')),
    url             TEXT NOT NULL UNIQUE,
    extraction_path TEXT NOT NULL DEFAULT '',
    selector        TEXT NOT NULL DEFAULT '',
    expected_value  TEXT,
    status          TEXT NOT NULL DEFAULT 'unknown' CHECK(status IN ('up', 'down', 'unknown')),
    last_checked    TEXT,
    created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_services_created ON services(created_at);
`

// DB is a SQLite-backed registry.Store.
type DB struct {
	db *sql.DB
}

var _ registry.Store = (*DB)(nil)

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Add inserts a service, assigning an ID and defaults when missing.
func (d *DB) Add(ctx context.Context, s *registry.Service) error {
	if _, err := d.GetByURL(ctx, s.URL); err == nil {
		return registry.ErrDuplicateURL
	} else if !errors.Is(err, registry.ErrNotFound) {
		return err
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = checker.StatusUnknown
	}

	var expected sql.NullString
	if s.ExpectedValue != nil {
		expected = sql.NullString{String: *s.ExpectedValue, Valid: true}
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO services (id, name, mode, url, extraction_path, selector, expected_value, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.Name,
		string(s.Mode),
		s.URL,
		s.ExtractionPath,
		s.Selector,
		expected,
		string(s.Status),
		s.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting service %q: %w", s.Name, err)
	}
	return nil
}

const serviceColumns = `id, name, mode, url, extraction_path, selector, expected_value, status, last_checked, created_at`

// List returns all services in registration order.
func (d *DB) List(ctx context.Context) ([]registry.Service, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	defer rows.Close()

	var out []registry.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning service: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return out, nil
}

// Get returns the service with the given ID, or registry.ErrNotFound.
func (d *DB) Get(ctx context.Context, id string) (*registry.Service, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	s, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying service %q: %w", id, err)
	}
	return s, nil
}

// GetByURL returns the service registered for url, or registry.ErrNotFound.
func (d *DB) GetByURL(ctx context.Context, url string) (*registry.Service, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE url = ?`, url)
	s, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying service by URL %q: %w", url, err)
	}
	return s, nil
}

// Remove deletes the service with the given ID.
func (d *DB) Remove(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting service %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting service %q: %w", id, err)
	}
	if n == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// SetStatus records the outcome of a check for the given service.
func (d *DB) SetStatus(ctx context.Context, id string, status checker.Status, checkedAt time.Time) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE services SET status = ?, last_checked = ? WHERE id = ?`,
		string(status),
		checkedAt.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating status for %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating status for %q: %w", id, err)
	}
	if n == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanService(row scanner) (*registry.Service, error) {
	var (
		s           registry.Service
		mode        string
		status      string
		expected    sql.NullString
		lastChecked sql.NullString
		createdAt   string
	)
	err := row.Scan(&s.ID, &s.Name, &mode, &s.URL, &s.ExtractionPath, &s.Selector,
		&expected, &status, &lastChecked, &createdAt)
	if err != nil {
		return nil, err
	}
	s.Mode = checker.Mode(mode)
	s.Status = checker.Status(status)
	if expected.Valid {
		v := expected.String
		s.ExpectedValue = &v
	}
	if lastChecked.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastChecked.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_checked %q: %w", lastChecked.String, err)
		}
		s.LastChecked = &t
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	s.CreatedAt = created
	return &s, nil
}
