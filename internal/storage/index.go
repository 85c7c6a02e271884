package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	name        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	dim         INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	t           REAL NOT NULL,
	mu          REAL NOT NULL,
	steps       INTEGER NOT NULL,
	energy      REAL NOT NULL,
	population  REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);`

// Index is a SQLite catalog of stored runs. The run directories stay the
// source of truth; Store.Reindex rebuilds the catalog from them.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("index path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path)+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Index{db: db}, nil
}

func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	return i.db.Close()
}

func (i *Index) Record(m RunMetadata) error {
	_, err := i.db.Exec(`INSERT OR REPLACE INTO runs
		(id, kind, name, created_at, dim, size, t, mu, steps, energy, population)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Kind, m.Name, m.Timestamp.UTC().Format(timeFormat), m.Dim, m.Size(),
		m.T, m.Mu, m.Steps, m.Energy, m.Population)
	if err != nil {
		return fmt.Errorf("record run %s: %w", m.ID, err)
	}
	return nil
}

func (i *Index) Clear() error {
	_, err := i.db.Exec(`DELETE FROM runs`)
	return err
}

// Filter narrows an index query; zero fields match everything.
type Filter struct {
	Kind  string
	Name  string
	Dim   int
	Size  int
	Limit int
}

// IDs returns the matching run ids, oldest first.
func (i *Index) IDs(f Filter) ([]string, error) {
	var where []string
	var args []any
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Name != "" {
		where = append(where, "name = ?")
		args = append(args, f.Name)
	}
	if f.Dim > 0 {
		where = append(where, "dim = ?")
		args = append(args, f.Dim)
	}
	if f.Size > 0 {
		where = append(where, "size = ?")
		args = append(args, f.Size)
	}

	q := "SELECT id FROM runs"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := i.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Query loads the metadata of every run matching f.
func (s *Store) Query(f Filter) ([]RunMetadata, error) {
	if s.index == nil {
		return nil, fmt.Errorf("storage: index not open")
	}
	ids, err := s.index.IDs(f)
	if err != nil {
		return nil, err
	}
	runs := make([]RunMetadata, 0, len(ids))
	for _, id := range ids {
		meta, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}
