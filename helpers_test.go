package fogsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed list of draws, cycling when it runs out
type scriptedSource struct {
	draws []float64
	next  int
}

func (ss *scriptedSource) RandU01() float64 {
	if len(ss.draws) == 0 {
		return 0.5
	}
	u := ss.draws[ss.next%len(ss.draws)]
	ss.next += 1
	return u
}

// lineTopoCfg places three fogs on a line one unit apart, a cloud far away,
// and one device on top of the first fog.  The fogs are fully meshed.
func lineTopoCfg(fogCap, cloudCap int) *TopoCfg {
	tc := CreateTopoCfg("line")
	tc.AddNode("f0", FogKind, Location{Longitude: 0, Latitude: 0}, fogCap)
	tc.AddNode("f1", FogKind, Location{Longitude: 1, Latitude: 0}, fogCap)
	tc.AddNode("f2", FogKind, Location{Longitude: 2, Latitude: 0}, fogCap)
	tc.AddNode("c0", CloudKind, Location{Longitude: 10, Latitude: 10}, cloudCap)
	tc.AddDevice("d0", Location{Longitude: 0, Latitude: 0}, 0.1)
	tc.AddLink("f0", "f1", 0)
	tc.AddLink("f0", "f2", 0)
	tc.AddLink("f1", "f2", 0)
	return tc
}

func buildLineTopo(t *testing.T, fogCap, cloudCap int) *Topology {
	topo, err := BuildTopology(lineTopoCfg(fogCap, cloudCap), 1000.0, 100)
	require.NoError(t, err)
	return topo
}

func mustNode(t *testing.T, topo *Topology, name string) *Node {
	node, present := topo.NodeByName(name)
	require.True(t, present, "node %s", name)
	return node
}

// dispatchOne runs a single task of the given service time through policy and
// returns its outcome
func dispatchOne(t *testing.T, topo *Topology, policy Policy, servTime float64) (Outcome, *Task) {
	eng := CreateEngine()
	for _, node := range topo.Nodes() {
		node.Rsrc.Init(eng)
	}
	dev := topo.Devices[0]
	app := CreateApplication(0, dev, 0.0, ConstantSampler(servTime), 10, 0)

	var out Outcome
	var task *Task
	resolved := 0
	eng.Schedule(0.0, func(eng *Engine) {
		task = app.newTask(eng, topo.HomeNode(dev), 0)
		policy.Dispatch(eng, task, func(eng *Engine, o Outcome) {
			out = o
			resolved += 1
		})
	})
	require.NoError(t, eng.Run(1e6))
	require.Equal(t, 1, resolved)
	return out, task
}
