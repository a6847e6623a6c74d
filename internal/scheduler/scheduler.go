// Package scheduler runs one cancellable periodic probe task per monitored
// target and keeps the registry's monitoring flags in step with them.
//
// All control operations on one target id are serialized through a per-id
// lock; different ids proceed independently. No lock is ever held across a
// probe.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/domain"
	"github.com/hamed0406/urlmonitor/internal/probe"
	"github.com/hamed0406/urlmonitor/internal/registry"
	"github.com/hamed0406/urlmonitor/internal/status"
)

type Options struct {
	ProbeTimeout time.Duration // default probe.DefaultTimeout
	// IntervalUnit is the length of one interval step. Minutes in
	// production; tests shrink it.
	IntervalUnit     time.Duration
	CheckConcurrency int          // fan-out for CheckAll, default 8
	OnDemand         probe.Prober // prober for CheckNow/CheckAll, defaults to the scheduled one
}

type Scheduler struct {
	log      *zap.Logger
	registry *registry.Registry
	cache    *status.Cache
	prober   probe.Prober
	onDemand probe.Prober
	opts     Options

	locks *keyLocks

	mu     sync.Mutex
	live   map[domain.TargetID]*entry
	closed bool

	base   context.Context
	cancel context.CancelFunc
}

func New(log *zap.Logger, reg *registry.Registry, cache *status.Cache, prober probe.Prober, opts Options) *Scheduler {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = probe.DefaultTimeout
	}
	if opts.IntervalUnit <= 0 {
		opts.IntervalUnit = time.Minute
	}
	if opts.CheckConcurrency < 1 {
		opts.CheckConcurrency = 8
	}
	onDemand := opts.OnDemand
	if onDemand == nil {
		onDemand = prober
	}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:      log,
		registry: reg,
		cache:    cache,
		prober:   prober,
		onDemand: onDemand,
		opts:     opts,
		locks:    newKeyLocks(),
		live:     make(map[domain.TargetID]*entry),
		base:     base,
		cancel:   cancel,
	}
}

// Register adds a target without starting it.
func (s *Scheduler) Register(ctx context.Context, url string, interval int) (domain.Target, error) {
	return s.registry.Register(ctx, url, interval)
}

// Start launches monitoring for id. ErrAlreadyActive means an entry is
// already running; it is a conflict report, not a failure.
func (s *Scheduler) Start(ctx context.Context, id domain.TargetID) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.startLocked(ctx, id)
}

// Stop cancels monitoring for id and clears its monitoring flag. Stopping
// an idle target is not an error.
func (s *Scheduler) Stop(ctx context.Context, id domain.TargetID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, ok := s.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	had := s.stopEntryLocked(id)
	if err := s.registry.SetMonitoring(ctx, id, false); err != nil {
		if had {
			// flag stayed true, so the entry has to come back
			s.relaunchLocked(t)
		}
		return err
	}
	if had {
		s.log.Info("scheduler_entry_stopped", zap.String("target_id", string(id)))
	}
	return nil
}

// RestartForIntervalChange stores the new interval and, if the target was
// being monitored, replaces its entry with one using the new period.
func (s *Scheduler) RestartForIntervalChange(ctx context.Context, id domain.TargetID, minutes int) (domain.Target, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	old, ok := s.registry.Get(id)
	if !ok {
		return domain.Target{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	active := s.stopEntryLocked(id)

	t, err := s.registry.SetInterval(ctx, id, minutes)
	if err != nil {
		if active {
			s.relaunchLocked(old)
		}
		return old, err
	}
	if active {
		if err := s.startLocked(ctx, id); err != nil {
			return t, err
		}
	}
	s.log.Info("scheduler_interval_changed",
		zap.String("target_id", string(id)),
		zap.Int("from", old.Interval),
		zap.Int("to", t.Interval),
		zap.Bool("active", active),
	)
	return t, nil
}

// Delete stops any live entry, then removes the target. Once Delete
// returns, nothing writes a result for id again.
func (s *Scheduler) Delete(ctx context.Context, id domain.TargetID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, ok := s.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	had := s.stopEntryLocked(id)
	if _, err := s.registry.Remove(ctx, id); err != nil {
		if had {
			s.relaunchLocked(t)
		}
		return err
	}
	s.cache.Forget(id)
	s.log.Info("scheduler_target_deleted", zap.String("target_id", string(id)), zap.Bool("was_active", had))
	return nil
}

// SetMonitoring maps a desired-state toggle onto Start or Stop.
func (s *Scheduler) SetMonitoring(ctx context.Context, id domain.TargetID, on bool) error {
	if !on {
		return s.Stop(ctx, id)
	}
	if err := s.Start(ctx, id); err != nil && !errors.Is(err, domain.ErrAlreadyActive) {
		return err
	}
	return nil
}

// StopAll cancels every live entry and waits for all of them to exit. Any
// later Start fails with ErrShuttingDown. Monitoring flags are left as they
// are so the next process restores them.
func (s *Scheduler) StopAll() int {
	s.mu.Lock()
	s.closed = true
	entries := s.live
	s.live = make(map[domain.TargetID]*entry)
	s.mu.Unlock()

	for _, e := range entries {
		e.signal()
	}
	for _, e := range entries {
		e.stop()
	}
	s.cancel()
	s.log.Info("scheduler_stopped_all", zap.Int("entries", len(entries)))
	return len(entries)
}

// RestoreFromRegistry starts every target whose persisted state says it
// should be monitored. Failures are logged and skipped; the returned error
// only aggregates them for the caller to report.
func (s *Scheduler) RestoreFromRegistry(ctx context.Context) (started int, err error) {
	for _, t := range s.registry.List() {
		if !t.Monitoring {
			continue
		}
		serr := s.Start(ctx, t.ID)
		switch {
		case serr == nil:
			started++
		case errors.Is(serr, domain.ErrAlreadyActive):
		default:
			s.log.Warn("restore_skipped",
				zap.String("target_id", string(t.ID)),
				zap.String("url", t.URL),
				zap.Error(serr),
			)
			err = multierr.Append(err, fmt.Errorf("restore %s: %w", t.ID, serr))
		}
	}
	s.log.Info("restore_complete", zap.Int("started", started), zap.Int("skipped", len(multierr.Errors(err))))
	return started, err
}

// Status is a point-in-time view of one target.
func (s *Scheduler) Status(id domain.TargetID) (domain.TargetStatus, error) {
	t, ok := s.registry.Get(id)
	if !ok {
		return domain.TargetStatus{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return s.view(t), nil
}

func (s *Scheduler) List() []domain.TargetStatus {
	targets := s.registry.List()
	out := make([]domain.TargetStatus, 0, len(targets))
	for _, t := range targets {
		out = append(out, s.view(t))
	}
	return out
}

func (s *Scheduler) IsActive(id domain.TargetID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[id]
	return ok
}

func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// LastResult reads the status cache; it never waits on a probe.
func (s *Scheduler) LastResult(id domain.TargetID) (domain.ProbeResult, bool) {
	return s.cache.Get(id)
}

func (s *Scheduler) view(t domain.Target) domain.TargetStatus {
	st := domain.TargetStatus{Target: t, Active: s.IsActive(t.ID)}
	if r, ok := s.cache.Get(t.ID); ok {
		st.Last = &r
	}
	return st
}

func (s *Scheduler) startLocked(ctx context.Context, id domain.TargetID) error {
	t, ok := s.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err := s.registry.Validate(t); err != nil {
		return err
	}
	e, err := s.spawnLocked(t)
	if err != nil {
		return err
	}
	if err := s.registry.SetMonitoring(ctx, id, true); err != nil {
		s.mu.Lock()
		if s.live[id] == e {
			delete(s.live, id)
		}
		s.mu.Unlock()
		e.stop()
		return err
	}
	e.launch()
	s.log.Info("scheduler_entry_started",
		zap.String("target_id", string(id)),
		zap.String("url", t.URL),
		zap.Duration("period", e.period),
	)
	return nil
}

// spawnLocked reserves the live slot for t and starts its goroutine parked.
func (s *Scheduler) spawnLocked(t domain.Target) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrShuttingDown
	}
	if _, ok := s.live[t.ID]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyActive, t.ID)
	}
	e := newEntry(s.base, t, s.opts.IntervalUnit)
	e.probe = func(ctx context.Context) domain.ProbeResult {
		return s.safeProbe(ctx, s.prober, t.ID, t.URL)
	}
	e.record = func(r domain.ProbeResult) {
		s.cache.Record(t.ID, r)
		s.log.Debug("scheduler_probe",
			zap.String("target_id", string(t.ID)),
			zap.String("url", t.URL),
			zap.String("outcome", string(r.Outcome)),
			zap.Float64("latency_ms", r.LatencyMS),
			zap.String("detail", r.Detail),
		)
	}
	s.live[t.ID] = e
	go e.run()
	return e, nil
}

// relaunchLocked restores an entry after a failed persistence step; the
// registry still says monitoring=true for t.
func (s *Scheduler) relaunchLocked(t domain.Target) {
	e, err := s.spawnLocked(t)
	if err != nil {
		s.log.Warn("scheduler_relaunch_failed", zap.String("target_id", string(t.ID)), zap.Error(err))
		return
	}
	e.launch()
}

// stopEntryLocked removes and stops the live entry for id, if any.
func (s *Scheduler) stopEntryLocked(id domain.TargetID) bool {
	s.mu.Lock()
	e, ok := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()
	if ok {
		e.stop()
	}
	return ok
}

// safeProbe turns a prober panic into an error result so one bad probe
// can't take the process down.
func (s *Scheduler) safeProbe(ctx context.Context, p probe.Prober, id domain.TargetID, url string) (r domain.ProbeResult) {
	defer func() {
		if rec := recover(); rec != nil {
			correlationID := uuid.NewString()
			s.log.Error("probe_panic",
				zap.String("target_id", string(id)),
				zap.String("correlation_id", correlationID),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			r = domain.ProbeResult{
				Outcome:    domain.OutcomeError,
				ObservedAt: time.Now().UTC(),
				Detail:     fmt.Sprintf("probe panic (correlation_id: %s)", correlationID),
			}
		}
	}()
	return p.Probe(ctx, url, s.opts.ProbeTimeout)
}
