package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/domain"
	"github.com/hamed0406/urlmonitor/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)

const Schema = `
CREATE TABLE IF NOT EXISTS targets (
  id         TEXT PRIMARY KEY,
  url        TEXT NOT NULL,
  interval_minutes INTEGER NOT NULL,
  monitoring BOOLEAN NOT NULL DEFAULT FALSE
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// EnsureSchema creates the targets table on a fresh database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) LoadAll(ctx context.Context) (repo.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, url, interval_minutes, monitoring FROM targets`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	out := repo.Snapshot{}
	for rows.Next() {
		var t domain.Target
		var id string
		if err := rows.Scan(&id, &t.URL, &t.Interval, &t.Monitoring); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		t.ID = domain.TargetID(id)
		out[t.ID] = t
	}
	return out, rows.Err()
}

// SaveAll upserts every record and deletes rows that are no longer present,
// all in one transaction.
func (s *Store) SaveAll(ctx context.Context, snap repo.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]string, 0, len(snap))
	batch := &pgx.Batch{}
	for id, t := range snap {
		ids = append(ids, string(id))
		batch.Queue(`
			INSERT INTO targets (id, url, interval_minutes, monitoring)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id)
			DO UPDATE SET url=EXCLUDED.url, interval_minutes=EXCLUDED.interval_minutes, monitoring=EXCLUDED.monitoring`,
			string(id), t.URL, t.Interval, t.Monitoring)
	}
	batch.Queue(`DELETE FROM targets WHERE NOT (id = ANY($1))`, ids)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save targets: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("pg_targets_saved", zap.Int("count", len(snap)))
	return nil
}
