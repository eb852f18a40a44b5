package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserveResolution(t *testing.T) {
	before := Resolutions("metrics-test", OutcomeOK)
	staleBefore := Resolutions("metrics-test", OutcomeStale)
	ObserveResolution("metrics-test", OutcomeOK, time.Now().Add(-50*time.Millisecond))
	ObserveResolution("metrics-test", OutcomeStale, time.Now())
	require.Equal(t, before+1, Resolutions("metrics-test", OutcomeOK))
	require.Equal(t, staleBefore+1, Resolutions("metrics-test", OutcomeStale))

	var buf bytes.Buffer
	Write(&buf)
	out := buf.String()
	require.Contains(t, out, `cinestream_resolutions_total{provider="metrics-test",outcome="ok"} 1`)
	require.Contains(t, out, `cinestream_resolution_duration_seconds_bucket{provider="metrics-test"`)
	require.Contains(t, out, `cinestream_resolution_duration_seconds_count{provider="metrics-test"} 1`, "stale results carry no latency")
}
