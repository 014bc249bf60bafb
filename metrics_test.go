package fogsim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountByLabel(t *testing.T) {
	m := CreateMetrics("r1", "vfr")
	m.ObserveTask(HomeTier, 0.5)
	m.ObserveTask(HomeTier, 0.7)
	m.ObserveTask(CloudTier, 30.0)
	m.ObserveProbe(Real)
	m.ObserveProbe(Dummy)
	m.ObserveProbe(Dummy)
	m.ObservePenalty()

	require.Equal(t, 2.0, testutil.ToFloat64(m.tasks.WithLabelValues("home")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("cloud")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.probes.WithLabelValues("dummy")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.penalties))
	require.Equal(t, 2, testutil.CollectAndCount(m.tasks))

	expected := `
# HELP fogsim_fault_penalties_total Requests or releases that met a faulted node
# TYPE fogsim_fault_penalties_total counter
fogsim_fault_penalties_total{policy="vfr",run="r1"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected),
		"fogsim_fault_penalties_total"))
}

func TestNilMetricsIgnoresObservations(t *testing.T) {
	var m *Metrics
	m.ObserveTask(PoolTier, 1.0)
	m.ObserveProbe(Untracked)
	m.ObservePenalty()
	m.ObserveFault(FaultActive)
}

func TestMetricsWriteToFile(t *testing.T) {
	m := CreateMetrics("r2", "po2")
	m.ObserveTask(PoolTier, 2.0)
	filename := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteToFile(filename))

	bytes, err := os.ReadFile(filename)
	require.NoError(t, err)
	text := string(bytes)
	require.Contains(t, text, `fogsim_tasks_total{policy="po2",run="r2",tier="pool"} 1`)
	require.Contains(t, text, "fogsim_response_seconds_bucket")
}
