package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

const (
	DefaultUserAgent = "URL-Monitor/1.0"

	maxDrainBytes       = 64 << 10
	maxIdleConns        = 100
	maxIdleConnsPerHost = 4
	idleConnTimeout     = 60 * time.Second
)

// HTTPProber issues GET requests and follows redirects. The timeout is applied
// per request through the context, so one client serves every target.
type HTTPProber struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPProber(userAgent string) *HTTPProber {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPProber{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConnsPerHost,
				IdleConnTimeout:     idleConnTimeout,
			},
		},
		UserAgent: userAgent,
	}
}

func (h *HTTPProber) Probe(ctx context.Context, target string, timeout time.Duration) domain.ProbeResult {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.ProbeResult{
			Outcome:    domain.OutcomeError,
			LatencyMS:  sinceMS(start),
			ObservedAt: time.Now().UTC(),
			Detail:     fmt.Sprintf("build request: %v", err),
		}
	}
	req.Header.Set("User-Agent", h.UserAgent)

	resp, err := h.Client.Do(req)
	if err != nil {
		outcome := domain.OutcomeError
		if isTimeout(ctx, err) {
			outcome = domain.OutcomeTimeout
		}
		return domain.ProbeResult{
			Outcome:    outcome,
			LatencyMS:  sinceMS(start),
			ObservedAt: time.Now().UTC(),
			Detail:     err.Error(),
		}
	}
	latency := sinceMS(start)
	// drain a little so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()

	code := resp.StatusCode
	r := domain.ProbeResult{
		Outcome:    domain.OutcomeReachable,
		StatusCode: &code,
		LatencyMS:  latency,
		ObservedAt: time.Now().UTC(),
	}
	if code >= 400 {
		r.Outcome = domain.OutcomeUnreachable
		r.Detail = resp.Status
	}
	return r
}

// isTimeout reports whether err came from the probe's own deadline rather
// than from the caller cancelling.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
