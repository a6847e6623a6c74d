// internal/probe/retryprober.go
package probe

import (
	"context"
	"time"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

// RetryProber retries non-reachable results. The scheduler never wraps its
// entries with it; it serves on-demand checks only.
type RetryProber struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
}

func (r *RetryProber) Probe(ctx context.Context, target string, timeout time.Duration) domain.ProbeResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.ProbeResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Probe(ctx, target, timeout)
		if last.Reachable() || i == attempts-1 {
			break
		}
		t := time.NewTimer(r.Backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return last
		case <-t.C:
		}
	}
	if !last.Reachable() && attempts > 1 {
		// annotate so it's visible this was a retry series
		last.Detail = last.Detail + " (after retries)"
	}
	return last
}
