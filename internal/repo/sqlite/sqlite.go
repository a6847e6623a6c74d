package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/hamed0406/urlmonitor/internal/domain"
	"github.com/hamed0406/urlmonitor/internal/repo"
)

const schema = `
CREATE TABLE IF NOT EXISTS targets (
    id         TEXT PRIMARY KEY,
    url        TEXT NOT NULL,
    interval_minutes INTEGER NOT NULL,
    monitoring BOOLEAN NOT NULL DEFAULT 0
);
`

// Store keeps the registry in a local SQLite file.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("database open failed: %w", err)
	}
	// one writer; WAL lets readers proceed during a save
	db.SetMaxOpenConns(1)
	for _, p := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) LoadAll(ctx context.Context) (repo.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, url, interval_minutes, monitoring FROM targets`)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	out := repo.Snapshot{}
	for rows.Next() {
		var (
			id string
			t  domain.Target
		)
		if err := rows.Scan(&id, &t.URL, &t.Interval, &t.Monitoring); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		t.ID = domain.TargetID(id)
		out[t.ID] = t
	}
	return out, rows.Err()
}

// SaveAll rewrites the table inside a single transaction.
func (s *Store) SaveAll(ctx context.Context, snap repo.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM targets`); err != nil {
		return fmt.Errorf("clear targets: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO targets (id, url, interval_minutes, monitoring) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for id, t := range snap {
		if _, err := stmt.ExecContext(ctx, string(id), t.URL, t.Interval, t.Monitoring); err != nil {
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

var _ repo.TargetStore = (*Store)(nil)
