package fogsim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTraceManagerRecordsTasks(t *testing.T) {
	topo := buildLineTopo(t, 4, 10)
	dev := topo.Devices[0]
	f0, c0 := mustNode(t, topo, "f0"), mustNode(t, topo, "c0")
	early := CreateApplication(0, dev, 0.0, ConstantSampler(0.5), 10, 0)
	late := CreateApplication(1, dev, 0.0, ConstantSampler(0.5), 10, 0)

	tm := CreateTraceManager("trace", "run-1", true)
	require.True(t, tm.Active())
	require.NoError(t, tm.AddName(f0.ID, f0.Name, "fog"))
	require.Error(t, tm.AddName(f0.ID, "again", "fog"))

	eng := CreateEngine()
	eng.Schedule(2.0, func(eng *Engine) {
		task := &Task{ID: dev.NextTaskID(), App: early, Home: f0, ServTime: 0.5}
		tm.Record(eng, Outcome{Task: task, Response: 2.0, Tier: CloudTier, Node: c0})
	})
	eng.Schedule(1.0, func(eng *Engine) {
		task := &Task{ID: dev.NextTaskID(), App: late, Home: f0, ServTime: 0.5, Probes: 2}
		tm.Record(eng, Outcome{Task: task, Response: 1.0, Tier: HomeTier, Node: f0})
	})
	require.NoError(t, eng.Run(10.0))
	require.Equal(t, 2, tm.Len())
	require.Len(t, tm.Traces[0], 1)
	require.Len(t, tm.Traces[1], 1)

	filename := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, tm.WriteToFile(filename, true))
	bytes, err := os.ReadFile(filename)
	require.NoError(t, err)

	var back TraceManager
	require.NoError(t, yaml.Unmarshal(bytes, &back))
	require.Equal(t, "run-1", back.RunID)
	merged := back.Traces[0]
	require.Len(t, merged, 2)
	require.Equal(t, "1", merged[0].TraceTime)
	require.Equal(t, "2", merged[1].TraceTime)

	var first TaskTrace
	require.NoError(t, yaml.Unmarshal([]byte(merged[0].TraceStr), &first))
	require.Equal(t, "home", first.Tier)
	require.Equal(t, 1, first.AppID)
	require.Equal(t, 2, first.Probes)
	require.Equal(t, f0.ID, first.NodeID)
}

func TestInactiveTraceManager(t *testing.T) {
	tm := CreateTraceManager("quiet", "run-2", false)
	require.NoError(t, tm.AddName(0, "f0", "fog"))
	require.Empty(t, tm.NameByID)

	filename := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, tm.WriteToFile(filename, true))
	_, err := os.Stat(filename)
	require.True(t, os.IsNotExist(err))
}
