// Package registry holds the authoritative set of monitored targets and
// keeps the persistent store in step with it.
//
// Every mutation is applied in memory, saved through the store and rolled
// back if the save fails, all under one lock, so memory and disk never
// disagree once a call returns.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/domain"
	"github.com/hamed0406/urlmonitor/internal/repo"
	"github.com/hamed0406/urlmonitor/internal/urlcheck"
)

type Registry struct {
	mu        sync.RWMutex
	targets   map[domain.TargetID]domain.Target
	store     repo.TargetStore
	validator urlcheck.Validator
	log       *zap.Logger
	newID     func() domain.TargetID
}

func New(store repo.TargetStore, validator urlcheck.Validator, log *zap.Logger) *Registry {
	if validator == nil {
		validator = urlcheck.HTTP{}
	}
	return &Registry{
		targets:   make(map[domain.TargetID]domain.Target),
		store:     store,
		validator: validator,
		log:       log,
		newID:     func() domain.TargetID { return domain.TargetID(uuid.NewString()) },
	}
}

// Load replaces the in-memory state with what the store holds. Intervals
// are clamped; records with a bad url are kept so they can still be listed
// and deleted, but Validate rejects them.
func (r *Registry) Load(ctx context.Context) error {
	snap, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %w", domain.ErrPersistence, err)
	}
	targets := make(map[domain.TargetID]domain.Target, len(snap))
	for id, t := range snap {
		t.ID = id
		if c := domain.ClampInterval(t.Interval); c != t.Interval {
			r.log.Warn("registry_interval_clamped",
				zap.String("target_id", string(id)),
				zap.Int("interval", t.Interval),
				zap.Int("clamped", c),
			)
			t.Interval = c
		}
		targets[id] = t
	}

	r.mu.Lock()
	r.targets = targets
	r.mu.Unlock()
	r.log.Info("registry_loaded", zap.Int("targets", len(targets)))
	return nil
}

// Validate reports ErrInvalidConfig for a record that cannot be monitored.
func (r *Registry) Validate(t domain.Target) error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", domain.ErrInvalidConfig)
	}
	if !r.validator.IsValid(t.URL) {
		return fmt.Errorf("%w: target %s has url %q", domain.ErrInvalidConfig, t.ID, t.URL)
	}
	if t.Interval < domain.MinInterval || t.Interval > domain.MaxInterval {
		return fmt.Errorf("%w: target %s has interval %d", domain.ErrInvalidConfig, t.ID, t.Interval)
	}
	return nil
}

func (r *Registry) Get(id domain.TargetID) (domain.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[id]
	return t, ok
}

// Snapshot is a copy; callers may keep or modify it freely.
func (r *Registry) Snapshot() repo.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(repo.Snapshot, len(r.targets))
	for id, t := range r.targets {
		out[id] = t
	}
	return out
}

// List returns every target ordered by url, then id.
func (r *Registry) List() []domain.Target {
	snap := r.Snapshot()
	out := make([]domain.Target, 0, len(snap))
	for _, t := range snap {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].URL != out[j].URL {
			return out[i].URL < out[j].URL
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}

// Register adds a new, unmonitored target. A non-positive interval means
// the default.
func (r *Registry) Register(ctx context.Context, rawURL string, interval int) (domain.Target, error) {
	if !r.validator.IsValid(rawURL) {
		return domain.Target{}, fmt.Errorf("%w: %q", domain.ErrInvalidURL, strings.TrimSpace(rawURL))
	}
	norm := urlcheck.Normalize(rawURL)
	if interval <= 0 {
		interval = domain.DefaultInterval
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.targets {
		if urlcheck.Normalize(t.URL) == norm {
			return domain.Target{}, fmt.Errorf("%w: %s (id %s)", domain.ErrDuplicateURL, norm, t.ID)
		}
	}
	t := domain.Target{
		ID:       r.newID(),
		URL:      norm,
		Interval: domain.ClampInterval(interval),
	}
	r.targets[t.ID] = t
	if err := r.saveLocked(ctx); err != nil {
		delete(r.targets, t.ID)
		return domain.Target{}, err
	}
	r.log.Info("registry_target_added",
		zap.String("target_id", string(t.ID)),
		zap.String("url", t.URL),
		zap.Int("interval", t.Interval),
	)
	return t, nil
}

// SetMonitoring records the desired state. Unchanged values skip the save.
func (r *Registry) SetMonitoring(ctx context.Context, id domain.TargetID, on bool) error {
	_, err := r.update(ctx, id, func(t *domain.Target) { t.Monitoring = on })
	return err
}

func (r *Registry) SetInterval(ctx context.Context, id domain.TargetID, minutes int) (domain.Target, error) {
	minutes = domain.ClampInterval(minutes)
	return r.update(ctx, id, func(t *domain.Target) { t.Interval = minutes })
}

func (r *Registry) Remove(ctx context.Context, id domain.TargetID) (domain.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.targets[id]
	if !ok {
		return domain.Target{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	delete(r.targets, id)
	if err := r.saveLocked(ctx); err != nil {
		r.targets[id] = old
		return domain.Target{}, err
	}
	r.log.Info("registry_target_removed", zap.String("target_id", string(id)))
	return old, nil
}

func (r *Registry) update(ctx context.Context, id domain.TargetID, fn func(*domain.Target)) (domain.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.targets[id]
	if !ok {
		return domain.Target{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	next := old
	fn(&next)
	if next == old {
		return old, nil
	}
	r.targets[id] = next
	if err := r.saveLocked(ctx); err != nil {
		r.targets[id] = old
		return old, err
	}
	return next, nil
}

func (r *Registry) saveLocked(ctx context.Context) error {
	snap := make(repo.Snapshot, len(r.targets))
	for id, t := range r.targets {
		snap[id] = t
	}
	if err := r.store.SaveAll(ctx, snap); err != nil {
		r.log.Error("registry_save_failed", zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}
