package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hamed0406/urlmonitor/internal/domain"
	"github.com/hamed0406/urlmonitor/internal/repo"
)

// DefaultKey is the hash that holds one JSON record per target id.
const DefaultKey = "urlmonitor:targets"

type Options struct {
	Addr        string
	Password    string
	DB          int
	Key         string
	DialTimeout time.Duration
}

type Store struct {
	client *goredis.Client
	key    string
}

func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
	}
	return &Store{client: client, key: opts.Key}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) LoadAll(ctx context.Context) (repo.Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get targets: %w", err)
	}
	out := make(repo.Snapshot, len(fields))
	for id, raw := range fields {
		var t domain.Target
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal target %s: %w", id, err)
		}
		t.ID = domain.TargetID(id)
		out[t.ID] = t
	}
	return out, nil
}

// SaveAll replaces the hash atomically with MULTI/EXEC.
func (s *Store) SaveAll(ctx context.Context, snap repo.Snapshot) error {
	values := make(map[string]any, len(snap))
	for id, t := range snap {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal target %s: %w", id, err)
		}
		values[string(id)] = b
	}
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.key)
		if len(values) > 0 {
			p.HSet(ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save targets: %w", err)
	}
	return nil
}

var _ repo.TargetStore = (*Store)(nil)
