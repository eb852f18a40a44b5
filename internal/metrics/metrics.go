// Package metrics records resolution outcomes in the process-wide
// VictoriaMetrics registry. The serve command exposes them on /metrics.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Outcome labels for resolution counters.
const (
	OutcomeOK    = "ok"
	OutcomeMiss  = "miss"
	OutcomeStale = "stale"
)

// ResolutionsName returns the counter name for provider and outcome.
func ResolutionsName(provider, outcome string) string {
	return fmt.Sprintf(`cinestream_resolutions_total{provider=%q,outcome=%q}`, provider, outcome)
}

// ObserveResolution counts one finished resolution and records its latency.
func ObserveResolution(provider, outcome string, started time.Time) {
	metrics.GetOrCreateCounter(ResolutionsName(provider, outcome)).Inc()
	if outcome != OutcomeStale {
		metrics.GetOrCreateHistogram(
			fmt.Sprintf(`cinestream_resolution_duration_seconds{provider=%q}`, provider),
		).UpdateDuration(started)
	}
}

// Resolutions returns the current value of a resolution counter.
func Resolutions(provider, outcome string) uint64 {
	return metrics.GetOrCreateCounter(ResolutionsName(provider, outcome)).Get()
}

// Write writes every registered metric in Prometheus text format.
func Write(w io.Writer) {
	metrics.WritePrometheus(w, true)
}
