package probe

import (
	"context"
	"time"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

// DefaultTimeout applies when a caller passes a non-positive timeout.
const DefaultTimeout = 10 * time.Second

// Prober performs a single probe of url. Failures are reported through the
// returned result, never as an error.
type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration) domain.ProbeResult
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, url string, timeout time.Duration) domain.ProbeResult

func (f ProberFunc) Probe(ctx context.Context, url string, timeout time.Duration) domain.ProbeResult {
	return f(ctx, url, timeout)
}

func sinceMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
