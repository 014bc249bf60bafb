package fogsim

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestFaultWindowTransitions(t *testing.T) {
	topo := buildLineTopo(t, 4, 10)
	eng := CreateEngine()
	for _, node := range topo.Nodes() {
		node.Rsrc.Init(eng)
	}
	metrics := CreateMetrics("run", "homefog")
	fw, err := CreateFaultWindow(FaultCfg{Start: 2, End: 4, Count: 2}, topo, hclog.NewNullLogger(), metrics)
	require.NoError(t, err)
	require.Len(t, fw.Nodes(), 2)
	f0, f1, f2 := mustNode(t, topo, "f0"), mustNode(t, topo, "f1"), mustNode(t, topo, "f2")

	for index, want := range []FaultState{FaultPending, FaultPending, FaultActive, FaultActive, FaultRestored, FaultRestored} {
		require.NoError(t, fw.Observe(eng, index))
		require.Equal(t, want, fw.State(), "task %d", index)

		if want == FaultActive {
			require.True(t, f0.Rsrc.Faulted())
			require.True(t, f1.Rsrc.Faulted())
		} else {
			require.Equal(t, 4, f0.Rsrc.Capacity())
			require.Equal(t, 4, f1.Rsrc.Capacity())
		}
		require.False(t, f2.Rsrc.Faulted())
	}

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.faults.WithLabelValues("active")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.faults.WithLabelValues("restored")))
}

func TestFaultWindowByName(t *testing.T) {
	topo := buildLineTopo(t, 4, 10)
	fw, err := CreateFaultWindow(FaultCfg{Start: 0, End: 1, Nodes: []string{"f2", "c0"}}, topo, hclog.NewNullLogger(), nil)
	require.NoError(t, err)
	require.Equal(t, []*Node{mustNode(t, topo, "f2"), mustNode(t, topo, "c0")}, fw.Nodes())

	_, err = CreateFaultWindow(FaultCfg{Start: 0, End: 1, Nodes: []string{"f9"}}, topo, hclog.NewNullLogger(), nil)
	require.Error(t, err)

	fw, err = CreateFaultWindow(FaultCfg{Start: 0, End: 1, Count: 10}, topo, hclog.NewNullLogger(), nil)
	require.NoError(t, err)
	require.Len(t, fw.Nodes(), 3)
}

func TestEmptyFaultWindowIsInert(t *testing.T) {
	topo := buildLineTopo(t, 4, 10)
	eng := CreateEngine()
	fw, err := CreateFaultWindow(FaultCfg{Start: 3, End: 3, Count: 1}, topo, hclog.NewNullLogger(), nil)
	require.NoError(t, err)
	for index := 0; index < 6; index++ {
		require.NoError(t, fw.Observe(eng, index))
	}
	require.Equal(t, FaultPending, fw.State())
	require.False(t, mustNode(t, topo, "f0").Rsrc.Faulted())
}

func TestFaultedHomeReturnsPenalty(t *testing.T) {
	topo := buildLineTopo(t, 4, 10)
	metrics := CreateMetrics("run", "homefog")
	policy, err := CreatePolicy(runCfgFor("homefog"), topo, &scriptedSource{}, metrics)
	require.NoError(t, err)

	f0 := mustNode(t, topo, "f0")
	require.NoError(t, f0.Rsrc.SetCapacity(CreateEngine(), 0))

	out, task := dispatchOne(t, topo, policy, 0.5)
	require.True(t, out.Penalized)
	require.Equal(t, FaultPenalty, out.Response)
	require.Equal(t, 1, task.Probes)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.penalties))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.probes.WithLabelValues("untracked")))
}
