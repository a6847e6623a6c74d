package domain

import "time"

type TargetID string

const (
	MinInterval     = 1
	MaxInterval     = 1440
	DefaultInterval = 5
)

// Target is a monitored endpoint. Interval is the probe period in minutes.
type Target struct {
	ID         TargetID `json:"id" yaml:"id"`
	URL        string   `json:"url" yaml:"url"`
	Interval   int      `json:"interval" yaml:"interval"`
	Monitoring bool     `json:"monitoring" yaml:"monitoring"`
}

// ClampInterval forces minutes into [MinInterval, MaxInterval].
func ClampInterval(minutes int) int {
	if minutes < MinInterval {
		return MinInterval
	}
	if minutes > MaxInterval {
		return MaxInterval
	}
	return minutes
}

// Period converts the target interval to a duration using unit as one "minute".
func (t Target) Period(unit time.Duration) time.Duration {
	return time.Duration(ClampInterval(t.Interval)) * unit
}

// Outcome classifies a single probe.
type Outcome string

const (
	OutcomeReachable   Outcome = "reachable"
	OutcomeUnreachable Outcome = "unreachable"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeError       Outcome = "error"
)

// ProbeResult is immutable once built; a newer result replaces it wholesale.
type ProbeResult struct {
	Outcome    Outcome   `json:"outcome"`
	StatusCode *int      `json:"status_code,omitempty"` // nil when no response was received
	LatencyMS  float64   `json:"latency_ms"`
	ObservedAt time.Time `json:"observed_at"`
	Detail     string    `json:"detail,omitempty"`
}

func (r ProbeResult) Reachable() bool { return r.Outcome == OutcomeReachable }

// TargetStatus is the read model handed to the API layer.
type TargetStatus struct {
	Target Target       `json:"target"`
	Active bool         `json:"active"`
	Last   *ProbeResult `json:"last,omitempty"`
}
