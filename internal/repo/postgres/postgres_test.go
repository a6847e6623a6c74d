package postgres

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/domain"
	"github.com/hamed0406/urlmonitor/internal/repo"
)

func TestPostgresStore_SaveLoadRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("New store: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	// unique ids per run to stay clear of earlier rows
	suffix := time.Now().UTC().UnixNano()
	a := domain.TargetID(fmt.Sprintf("A-%d", suffix))
	b := domain.TargetID(fmt.Sprintf("B-%d", suffix))
	want := repo.Snapshot{
		a: {ID: a, URL: "https://example.com", Interval: 5, Monitoring: true},
		b: {ID: b, URL: "https://example.org", Interval: 60},
	}
	if err := store.SaveAll(ctx, want); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("mismatch:\nwant=%+v\ngot =%+v", want, got)
	}

	// dropping b from the snapshot must delete its row
	delete(want, b)
	if err := store.SaveAll(ctx, want); err != nil {
		t.Fatalf("SaveAll shrink: %v", err)
	}
	got, err = store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if _, ok := got[b]; ok {
		t.Fatalf("row %s should have been deleted", b)
	}
}
