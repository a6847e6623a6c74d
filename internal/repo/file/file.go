// Package file persists the registry as a single JSON or YAML document,
// one record per target id.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/urlmonitor/internal/domain"
	"github.com/hamed0406/urlmonitor/internal/repo"
)

type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// FormatFor picks YAML for .yaml/.yml paths and JSON for everything else.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

type Store struct {
	mu     sync.Mutex
	path   string
	format Format
}

func New(path string) *Store {
	return &Store{path: path, format: FormatFor(path)}
}

func (s *Store) Path() string { return s.path }

// LoadAll returns an empty snapshot when the file does not exist yet.
func (s *Store) LoadAll(ctx context.Context) (repo.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return repo.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return repo.Snapshot{}, nil
	}

	doc := map[string]domain.Target{}
	switch s.format {
	case YAML:
		err = yaml.Unmarshal(b, &doc)
	default:
		err = json.Unmarshal(b, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	out := make(repo.Snapshot, len(doc))
	for key, t := range doc {
		// the map key is authoritative when the record omits its id
		if t.ID == "" {
			t.ID = domain.TargetID(key)
		}
		out[domain.TargetID(key)] = t
	}
	return out, nil
}

// SaveAll writes to a temp file in the same directory and renames it over
// the old document, so readers never see a partial write.
func (s *Store) SaveAll(ctx context.Context, snap repo.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := make(map[string]domain.Target, len(snap))
	for id, t := range snap {
		doc[string(id)] = t
	}

	var (
		b   []byte
		err error
	)
	switch s.format {
	case YAML:
		b, err = yaml.Marshal(doc)
	default:
		b, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

var _ repo.TargetStore = (*Store)(nil)
