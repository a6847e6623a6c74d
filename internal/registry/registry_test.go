package registry

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/domain"
	"github.com/hamed0406/urlmonitor/internal/repo"
	"github.com/hamed0406/urlmonitor/internal/repo/memory"
	"github.com/hamed0406/urlmonitor/internal/urlcheck"
)

func newRegistry(t *testing.T) (*Registry, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, urlcheck.HTTP{}, zap.NewNop()), store
}

func TestRegister_NormalizesAndPersists(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)

	tg, err := r.Register(ctx, "https://EXAMPLE.com/", 0)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if tg.ID == "" || tg.URL != "https://example.com" || tg.Interval != domain.DefaultInterval || tg.Monitoring {
		t.Fatalf("unexpected target: %+v", tg)
	}
	persisted, _ := store.LoadAll(ctx)
	if persisted[tg.ID] != tg {
		t.Fatalf("target not persisted: %+v", persisted)
	}
}

func TestRegister_RejectsDuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)

	if _, err := r.Register(ctx, "https://example.com", 1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Register(ctx, "https://example.com:443/", 3); !errors.Is(err, domain.ErrDuplicateURL) {
		t.Fatalf("want ErrDuplicateURL, got %v", err)
	}
	if _, err := r.Register(ctx, "ftp://example.com", 3); !errors.Is(err, domain.ErrInvalidURL) {
		t.Fatalf("want ErrInvalidURL, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("want 1 target, got %d", r.Len())
	}
}

func TestRegister_ClampsInterval(t *testing.T) {
	r, _ := newRegistry(t)
	tg, err := r.Register(context.Background(), "https://example.com", 99999)
	if err != nil {
		t.Fatal(err)
	}
	if tg.Interval != domain.MaxInterval {
		t.Fatalf("want clamp to %d, got %d", domain.MaxInterval, tg.Interval)
	}
}

func TestMutations_RollBackOnPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)
	tg, err := r.Register(ctx, "https://example.com", 5)
	if err != nil {
		t.Fatal(err)
	}

	store.FailWith(errors.New("disk full"))

	if err := r.SetMonitoring(ctx, tg.ID, true); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if got, _ := r.Get(tg.ID); got.Monitoring {
		t.Fatalf("monitoring flag should have been rolled back")
	}

	if _, err := r.SetInterval(ctx, tg.ID, 60); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if got, _ := r.Get(tg.ID); got.Interval != 5 {
		t.Fatalf("interval should have been rolled back, got %d", got.Interval)
	}

	if _, err := r.Remove(ctx, tg.ID); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if _, ok := r.Get(tg.ID); !ok {
		t.Fatalf("removed target should have been restored")
	}

	if _, err := r.Register(ctx, "https://example.org", 1); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("failed register leaked into memory")
	}
}

func TestSetMonitoring_UnchangedSkipsSave(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)
	tg, _ := r.Register(ctx, "https://example.com", 5)
	before := store.Saves()
	if err := r.SetMonitoring(ctx, tg.ID, false); err != nil {
		t.Fatal(err)
	}
	if store.Saves() != before {
		t.Fatalf("no-op update should not save")
	}
	if err := r.SetMonitoring(ctx, "missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLoad_ClampsAndKeepsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)
	_ = store.SaveAll(ctx, repo.Snapshot{
		"ok":  {ID: "ok", URL: "https://example.com", Interval: 0, Monitoring: true},
		"bad": {ID: "bad", URL: "not a url", Interval: 5, Monitoring: true},
	})
	if err := r.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ok, _ := r.Get("ok")
	if ok.Interval != 1 {
		t.Fatalf("interval should clamp to 1, got %d", ok.Interval)
	}
	if err := r.Validate(ok); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	bad, found := r.Get("bad")
	if !found {
		t.Fatalf("invalid record should still be listed")
	}
	if err := r.Validate(bad); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)
	tg, _ := r.Register(ctx, "https://example.com", 5)
	snap := r.Snapshot()
	delete(snap, tg.ID)
	if _, ok := r.Get(tg.ID); !ok {
		t.Fatalf("mutating the snapshot changed the registry")
	}
}

func TestList_Sorted(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)
	_, _ = r.Register(ctx, "https://b.example", 1)
	_, _ = r.Register(ctx, "https://a.example", 1)
	l := r.List()
	if len(l) != 2 || l[0].URL != "https://a.example" {
		t.Fatalf("unexpected order: %+v", l)
	}
}
