package fogsim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildTopologyDefaults(t *testing.T) {
	topo, err := BuildTopology(lineTopoCfg(4, 0), 250.0, 77)
	require.NoError(t, err)

	require.Len(t, topo.Fogs, 3)
	require.Len(t, topo.Clouds, 1)
	require.Equal(t, 77, topo.Cloud().Rsrc.Capacity())
	require.Equal(t, 3, topo.Links.Len())
	for _, link := range topo.Links.All() {
		require.Equal(t, 250.0, link.Bandwidth)
	}
	require.Equal(t, 4, mustNode(t, topo, "f2").Rsrc.Capacity())
}

func TestBuildTopologyReportsEveryProblem(t *testing.T) {
	tc := CreateTopoCfg("broken")
	tc.Nodes = append(tc.Nodes, NodeDesc{ID: 0, Name: "a", Kind: "edge"})
	tc.Nodes = append(tc.Nodes, NodeDesc{ID: 1, Name: "b", Kind: "fog", Capacity: -2})
	tc.Devices = append(tc.Devices, DeviceDesc{ID: 0, Name: "d", BaseLatency: -1})
	tc.AddLink("b", "zz", 10)

	_, err := BuildTopology(tc, 100, 10)
	require.Error(t, err)
	msg := err.Error()
	for _, part := range []string{"edge", "capacity", "baseline", "zz"} {
		require.True(t, strings.Contains(msg, part), "missing %q in %s", part, msg)
	}

	_, err = BuildTopology(CreateTopoCfg("empty"), 100, 10)
	require.Error(t, err)
}

func TestDuplicateNames(t *testing.T) {
	topo := CreateTopology()
	_, err := topo.AddNode(0, "a", FogKind, Location{}, 1)
	require.NoError(t, err)
	_, err = topo.AddNode(0, "b", FogKind, Location{}, 1)
	require.Error(t, err)
	_, err = topo.AddNode(1, "a", FogKind, Location{}, 1)
	require.Error(t, err)

	_, err = topo.AddDevice(0, "d", Location{}, 0.1)
	require.NoError(t, err)
	_, err = topo.AddDevice(0, "e", Location{}, 0.1)
	require.Error(t, err)
}

func TestHomeNodeIsNearestFog(t *testing.T) {
	tc := lineTopoCfg(4, 10)
	tc.AddDevice("d1", Location{Longitude: 1.9, Latitude: 0}, 0.1)
	// equidistant from f0 and f1, roster order wins
	tc.AddDevice("d2", Location{Longitude: 0.5, Latitude: 0}, 0.1)
	topo, err := BuildTopology(tc, 1000, 100)
	require.NoError(t, err)

	require.Equal(t, mustNode(t, topo, "f0"), topo.HomeNode(topo.Devices[0]))
	require.Equal(t, mustNode(t, topo, "f2"), topo.HomeNode(topo.Devices[1]))
	require.Equal(t, mustNode(t, topo, "f0"), topo.HomeNode(topo.Devices[2]))
}

func TestPoolAndNeighborRanking(t *testing.T) {
	topo := buildLineTopo(t, 2, 10)
	f0, f1, f2 := mustNode(t, topo, "f0"), mustNode(t, topo, "f1"), mustNode(t, topo, "f2")
	dev := topo.Devices[0]

	require.Equal(t, []*Node{f1, f2}, topo.Pool(dev, f0, 3))
	require.Equal(t, []*Node{f1}, topo.Pool(dev, f0, 1))

	// congestion on the f0-f1 link pushes f1 behind f2
	link, _ := topo.Links.Between(f0, f1)
	link.AddLoad(4000)
	require.Equal(t, []*Node{f2, f1}, topo.Pool(dev, f0, 3))
	link.RemoveLoad(4000)

	eng := CreateEngine()
	for _, node := range topo.Nodes() {
		node.Rsrc.Init(eng)
	}
	occupy(t, eng, f1, 5.0)
	require.Equal(t, []*Node{f2, f1}, topo.SortedNeighbors(dev, f0, []*Node{f1, f2}))

	lat, viaLink := topo.LegLatency(dev, f0, f0)
	require.InDelta(t, 0.1, lat, 1e-9)
	require.Nil(t, viaLink)
	lat, viaLink = topo.LegLatency(dev, f0, f2)
	require.InDelta(t, 2.1, lat, 1e-9)
	require.NotNil(t, viaLink)
}

func TestNodeKinds(t *testing.T) {
	kind, err := NodeKindFromStr("Cloud")
	require.NoError(t, err)
	require.Equal(t, CloudKind, kind)
	_, err = NodeKindFromStr("edge")
	require.Error(t, err)
	require.Equal(t, "fog", NodeKindToStr(FogKind))
}
