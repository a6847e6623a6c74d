package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

// CheckNow probes id once, outside its schedule, and records the result.
// It works whether or not the target is being monitored.
func (s *Scheduler) CheckNow(ctx context.Context, id domain.TargetID) (domain.ProbeResult, error) {
	t, ok := s.registry.Get(id)
	if !ok {
		return domain.ProbeResult{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err := s.registry.Validate(t); err != nil {
		return domain.ProbeResult{}, err
	}

	res := s.safeProbe(ctx, s.onDemand, id, t.URL)
	if err := ctx.Err(); err != nil {
		return domain.ProbeResult{}, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()
	// deleted while probing
	if _, ok := s.registry.Get(id); !ok {
		return res, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	s.cache.Record(id, res)
	s.log.Debug("scheduler_check_now",
		zap.String("target_id", string(id)),
		zap.String("url", t.URL),
		zap.String("outcome", string(res.Outcome)),
		zap.Float64("latency_ms", res.LatencyMS),
	)
	return res, nil
}

// CheckAll runs CheckNow for every valid target with bounded fan-out and
// returns the fresh statuses. Targets deleted mid-run are left out.
func (s *Scheduler) CheckAll(ctx context.Context) []domain.TargetStatus {
	targets := s.registry.List()
	if len(targets) == 0 {
		return nil
	}

	sem := make(chan struct{}, s.opts.CheckConcurrency)
	var wg sync.WaitGroup

	for _, t := range targets {
		if s.registry.Validate(t) != nil {
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()

			if _, err := s.CheckNow(ctx, t.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				s.log.Warn("scheduler_check_error",
					zap.String("target_id", string(t.ID)),
					zap.String("url", t.URL),
					zap.Error(err),
				)
			}
		}()
	}
	wg.Wait()

	out := make([]domain.TargetStatus, 0, len(targets))
	for _, t := range targets {
		if st, err := s.Status(t.ID); err == nil {
			out = append(out, st)
		}
	}
	return out
}
