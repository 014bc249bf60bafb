package fogsim

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// zooGML writes a small graph in the layout of the Topology Zoo files.  Node 0
// has degree 6, nodes 1 and 2 degree 4, node 7 has no coordinates, and node 3
// carries a self loop.
func zooGML() string {
	var sb strings.Builder
	sb.WriteString("Creator \"fogsim test\"\n")
	sb.WriteString("graph [\n  directed 0\n  GeoLocation \"Nowhere\"\n")
	for id := 0; id < 7; id++ {
		fmt.Fprintf(&sb, "  node [\n    id %d\n    label \"n%d\"\n    Longitude %d\n    Latitude 0\n", id, id, id)
		sb.WriteString("    graphics [ x 1 y [ z 2 ] ]\n  ]\n")
	}
	sb.WriteString("  node [\n    id 7\n    label \"adrift\"\n    Internal 1\n  ]\n")
	edges := [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}, {0, 6}, {1, 2}, {1, 3}, {1, 4},
		{2, 5}, {2, 6}, {3, 3}, {7, 3}}
	for _, e := range edges {
		fmt.Fprintf(&sb, "  edge [\n    source %d\n    target %d\n    LinkLabel \"l\"\n  ]\n", e[0], e[1])
	}
	sb.WriteString("]\n")
	return sb.String()
}

func TestParseGML(t *testing.T) {
	gg, err := ParseGML(zooGML())
	require.NoError(t, err)
	require.Len(t, gg.Nodes, 8)
	require.Len(t, gg.Edges, 13)

	gn, present := gg.Node(7)
	require.True(t, present)
	require.Equal(t, "adrift", gn.Label)
	require.False(t, gn.Located)

	gn, _ = gg.Node(4)
	require.True(t, gn.Located)
	require.Equal(t, 4.0, gn.Longitude)
	_, present = gg.Node(42)
	require.False(t, present)
}

func TestParseGMLErrors(t *testing.T) {
	for _, text := range []string{
		"Creator \"x\"",
		"graph [ node [ label \"a\" ] ]",
		"graph [ edge [ source 1 ] ]",
		"graph [ node [ id 0 label \"open ] ]",
		"graph [ node [ id 0 ]",
		"graph [ node [ id x ] ]",
	} {
		_, err := ParseGML(text)
		require.Error(t, err, text)
	}
}

func TestClassifyGML(t *testing.T) {
	gg, err := ParseGML(zooGML())
	require.NoError(t, err)

	fogs, clouds := ClassifyGML(gg)
	require.Len(t, fogs, 2)
	require.Equal(t, 1, fogs[0].ID)
	require.Equal(t, 2, fogs[1].ID)
	require.Len(t, clouds, 1)
	require.Equal(t, 0, clouds[0].ID)

	require.Len(t, EdgeLengths(gg), 11)
}

func TestDeviceBaseLatency(t *testing.T) {
	require.Equal(t, 0.0, DeviceBaseLatency(nil))
	require.Equal(t, 3.0, DeviceBaseLatency([]float64{3.0}))
	require.InDelta(t, 2.0+math.Sqrt2, DeviceBaseLatency([]float64{1.0, 3.0}), 1e-9)
}

func TestTopoCfgFromGML(t *testing.T) {
	gg, err := ParseGML(zooGML())
	require.NoError(t, err)

	tc, err := TopoCfgFromGML("zoo", gg, 16, 100, 500)
	require.NoError(t, err)
	require.Len(t, tc.Nodes, 3)
	require.Len(t, tc.Devices, 11)
	require.Equal(t, []LinkDesc{{A: "fog-1", B: "fog-2", Bandwidth: 500}}, tc.Links)
	require.Equal(t, "cloud", tc.Nodes[2].Kind)
	require.Equal(t, 100, tc.Nodes[2].Capacity)

	baseLat := DeviceBaseLatency(EdgeLengths(gg))
	for _, dd := range tc.Devices {
		require.Equal(t, baseLat, dd.BaseLatency)
	}

	// the description builds into a usable topology
	topo, err := BuildTopology(tc, 1000, 50)
	require.NoError(t, err)
	require.Len(t, topo.Fogs, 2)
	require.Len(t, topo.Devices, 11)
	require.Equal(t, "cloud-0", topo.Cloud().Name)

	_, err = TopoCfgFromGML("zoo", gg, -1, 100, 500)
	require.ErrorIs(t, err, ErrNegativeCapacity)
}

func TestSummarizeGML(t *testing.T) {
	gg, err := ParseGML(zooGML())
	require.NoError(t, err)

	gs := SummarizeGML(gg)
	require.Equal(t, 8, gs.Nodes)
	require.Equal(t, 13, gs.Edges)
	require.Equal(t, 7, gs.Located)
	require.Equal(t, 1, gs.Components)
	require.Equal(t, 2, gs.Fogs)
	require.Equal(t, 1, gs.Clouds)
	require.Equal(t, 11, gs.Devices)
	require.Equal(t, map[string]int{"fog-1": 1, "fog-2": 1}, gs.CloudHops)
}

func TestDisconnectedGML(t *testing.T) {
	text := "graph [ node [ id 0 ] node [ id 1 ] node [ id 2 ] node [ id 3 ] " +
		"edge [ source 0 target 1 ] edge [ source 2 target 3 ] ]"
	gg, err := ParseGML(text)
	require.NoError(t, err)

	gs := SummarizeGML(gg)
	require.Equal(t, 2, gs.Components)
	require.Equal(t, 0, gs.Fogs)

	_, err = TopoCfgFromGML("split", gg, 16, 100, 500)
	require.Error(t, err)
}

func TestReadGMLFromFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "zoo.gml")
	require.NoError(t, os.WriteFile(filename, []byte(zooGML()), 0o644))

	gg, err := ReadGML(filename, nil)
	require.NoError(t, err)
	require.Len(t, gg.Nodes, 8)

	_, err = ReadGML(filepath.Join(t.TempDir(), "missing.gml"), nil)
	require.Error(t, err)
}
