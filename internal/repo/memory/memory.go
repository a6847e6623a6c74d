package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/urlmonitor/internal/repo"
)

// Store keeps the registry in process memory. Useful for tests and for
// running without any persistence at all.
type Store struct {
	mu    sync.RWMutex
	data  repo.Snapshot
	saves int
	fail  error
}

func New() *Store {
	return &Store{data: repo.Snapshot{}}
}

func (m *Store) LoadAll(ctx context.Context) (repo.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Clone(), nil
}

func (m *Store) SaveAll(ctx context.Context, s repo.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data = s.Clone()
	m.saves++
	return nil
}

func (m *Store) Close() error { return nil }

// FailWith makes every following SaveAll return err until called with nil.
func (m *Store) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

// Saves reports how many SaveAll calls succeeded.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

var _ repo.TargetStore = (*Store)(nil)
