package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

// entry is the live periodic task for one target. It is spawned parked and
// only starts probing after release; cancel may come at any point.
type entry struct {
	id     domain.TargetID
	url    string
	period time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	release chan struct{}
	once    sync.Once
	done    chan struct{}

	probe  func(ctx context.Context) domain.ProbeResult
	record func(domain.ProbeResult)
}

func newEntry(parent context.Context, t domain.Target, unit time.Duration) *entry {
	ctx, cancel := context.WithCancel(parent)
	return &entry{
		id:      t.ID,
		url:     t.URL,
		period:  t.Period(unit),
		ctx:     ctx,
		cancel:  cancel,
		release: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// run probes immediately on release, then once per period. A probe that
// finishes after cancellation is discarded, and no probe starts after it.
func (e *entry) run() {
	defer close(e.done)

	select {
	case <-e.release:
	case <-e.ctx.Done():
		return
	}

	for {
		if e.ctx.Err() != nil {
			return
		}
		res := e.probe(e.ctx)
		if e.ctx.Err() != nil {
			return
		}
		e.record(res)

		t := time.NewTimer(e.period)
		select {
		case <-e.ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (e *entry) launch() {
	e.once.Do(func() { close(e.release) })
}

// signal cancels without waiting. Safe to call repeatedly.
func (e *entry) signal() { e.cancel() }

// stop cancels and waits for the task to exit. Safe to call repeatedly.
func (e *entry) stop() {
	e.cancel()
	<-e.done
}
