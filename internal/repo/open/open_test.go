package open

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/config"
	"github.com/hamed0406/urlmonitor/internal/repo/file"
	"github.com/hamed0406/urlmonitor/internal/repo/memory"
	"github.com/hamed0406/urlmonitor/internal/repo/sqlite"
)

func TestStore_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	log := zap.NewNop()

	s, err := Store(ctx, config.Config{StoreDriver: "file", StorePath: filepath.Join(dir, "urls.yaml")}, log)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, ok := s.(*file.Store); !ok {
		t.Fatalf("want *file.Store, got %T", s)
	}

	s, err = Store(ctx, config.Config{StoreDriver: "memory"}, log)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("want *memory.Store, got %T", s)
	}

	s, err = Store(ctx, config.Config{StoreDriver: "sqlite", SQLitePath: filepath.Join(dir, "r.db")}, log)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*sqlite.Store); !ok {
		t.Fatalf("want *sqlite.Store, got %T", s)
	}
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Store(ctx, config.Config{StoreDriver: "postgres"}, zap.NewNop()); err == nil {
		t.Fatalf("postgres without DSN should fail")
	}
	if _, err := Store(ctx, config.Config{StoreDriver: "etcd"}, zap.NewNop()); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
