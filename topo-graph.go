package fogsim

// topo-graph.go turns a GML network graph into a topology description.  The
// graph is loaded into a gonum undirected graph; node degree picks the tier
// (degree 4 or 5 makes a fog, 6 or more a cloud), the edge lengths fix the
// device baseline latency, and every fog gets i+5 devices at its own location,
// i being its position among the fogs.

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"
)

const (
	fogMinDegree   = 4
	cloudMinDegree = 6
	devicesPerFog  = 5
)

// buildGMLGraph loads gg into a gonum graph.  Self loops are dropped and
// parallel edges collapse into one.
func buildGMLGraph(gg *GMLGraph) *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for _, gn := range gg.Nodes {
		if ug.Node(int64(gn.ID)) == nil {
			ug.AddNode(simple.Node(gn.ID))
		}
	}
	for _, ge := range gg.Edges {
		if ge.Source == ge.Target {
			continue
		}
		ug.SetEdge(simple.Edge{F: simple.Node(ge.Source), T: simple.Node(ge.Target)})
	}
	return ug
}

// ClassifyGML returns the located nodes of gg that become fogs and clouds, in file order
func ClassifyGML(gg *GMLGraph) ([]GMLNode, []GMLNode) {
	ug := buildGMLGraph(gg)
	fogs, clouds := make([]GMLNode, 0), make([]GMLNode, 0)
	for _, gn := range gg.Nodes {
		if !gn.Located {
			continue
		}
		degree := ug.From(int64(gn.ID)).Len()
		switch {
		case degree >= cloudMinDegree:
			clouds = append(clouds, gn)
		case degree >= fogMinDegree:
			fogs = append(fogs, gn)
		}
	}
	return fogs, clouds
}

// EdgeLengths returns the Euclidean length of every edge, self loops aside, whose ends are both located
func EdgeLengths(gg *GMLGraph) []float64 {
	located := make(map[int]Location)
	for _, gn := range gg.Nodes {
		if gn.Located {
			located[gn.ID] = Location{Longitude: gn.Longitude, Latitude: gn.Latitude}
		}
	}
	lengths := make([]float64, 0, len(gg.Edges))
	for _, ge := range gg.Edges {
		if ge.Source == ge.Target {
			continue
		}
		src, srcOK := located[ge.Source]
		dst, dstOK := located[ge.Target]
		if srcOK && dstOK {
			lengths = append(lengths, src.Distance(dst))
		}
	}
	return lengths
}

// DeviceBaseLatency is the mean edge length plus one standard deviation
func DeviceBaseLatency(lengths []float64) float64 {
	switch len(lengths) {
	case 0:
		return 0.0
	case 1:
		return lengths[0]
	}
	return stat.Mean(lengths, nil) + stat.StdDev(lengths, nil)
}

// GMLSummary describes what a GML graph yields
type GMLSummary struct {
	Nodes       int            `json:"nodes" yaml:"nodes"`
	Edges       int            `json:"edges" yaml:"edges"`
	Located     int            `json:"located" yaml:"located"`
	Components  int            `json:"components" yaml:"components"`
	Fogs        int            `json:"fogs" yaml:"fogs"`
	Clouds      int            `json:"clouds" yaml:"clouds"`
	Devices     int            `json:"devices" yaml:"devices"`
	BaseLatency float64        `json:"baselatency" yaml:"baselatency"`
	CloudHops   map[string]int `json:"cloudhops" yaml:"cloudhops"`
}

// SummarizeGML reports the tiers a graph yields, its number of connected
// components, and for every fog the hop count to its nearest cloud (-1 if none
// is reachable)
func SummarizeGML(gg *GMLGraph) GMLSummary {
	ug := buildGMLGraph(gg)
	fogs, clouds := ClassifyGML(gg)
	gs := GMLSummary{Nodes: len(gg.Nodes), Edges: len(gg.Edges), Fogs: len(fogs), Clouds: len(clouds)}
	for _, gn := range gg.Nodes {
		if gn.Located {
			gs.Located += 1
		}
	}
	gs.Components = len(topo.ConnectedComponents(ug))
	gs.BaseLatency = DeviceBaseLatency(EdgeLengths(gg))
	for idx := range fogs {
		gs.Devices += idx + devicesPerFog
	}

	gs.CloudHops = make(map[string]int)
	for _, fog := range fogs {
		shortest := path.DijkstraFrom(simple.Node(fog.ID), ug)
		hops := math.Inf(1)
		for _, cloud := range clouds {
			hops = math.Min(hops, shortest.WeightTo(int64(cloud.ID)))
		}
		if math.IsInf(hops, 1) {
			gs.CloudHops[gmlNodeName(FogKind, fog)] = -1
		} else {
			gs.CloudHops[gmlNodeName(FogKind, fog)] = int(hops)
		}
	}
	return gs
}

func gmlNodeName(kind NodeKind, gn GMLNode) string {
	return fmt.Sprintf("%s-%d", NodeKindToStr(kind), gn.ID)
}

// TopoCfgFromGML builds a topology description from a GML graph.  Fogs get
// fogCapacity units and clouds cloudCapacity; every pair of fogs is linked.
func TopoCfgFromGML(name string, gg *GMLGraph, fogCapacity, cloudCapacity int, bandwidth float64) (*TopoCfg, error) {
	fogs, clouds := ClassifyGML(gg)
	if len(fogs) == 0 {
		return nil, fmt.Errorf("graph %s has no node of degree %d or %d", name, fogMinDegree, cloudMinDegree-1)
	}
	if fogCapacity < 0 || cloudCapacity < 0 {
		return nil, ErrNegativeCapacity
	}

	tc := CreateTopoCfg(name)
	for _, gn := range fogs {
		tc.AddNode(gmlNodeName(FogKind, gn), FogKind, Location{Longitude: gn.Longitude, Latitude: gn.Latitude}, fogCapacity)
	}
	for _, gn := range clouds {
		tc.AddNode(gmlNodeName(CloudKind, gn), CloudKind, Location{Longitude: gn.Longitude, Latitude: gn.Latitude}, cloudCapacity)
	}

	baseLat := DeviceBaseLatency(EdgeLengths(gg))
	for idx, gn := range fogs {
		loc := Location{Longitude: gn.Longitude, Latitude: gn.Latitude}
		for k := 0; k < idx+devicesPerFog; k++ {
			tc.AddDevice(fmt.Sprintf("dev-%d-%d", gn.ID, k), loc, baseLat)
		}
	}

	for src := 0; src < len(fogs)-1; src++ {
		for dst := src + 1; dst < len(fogs); dst++ {
			tc.AddLink(gmlNodeName(FogKind, fogs[src]), gmlNodeName(FogKind, fogs[dst]), bandwidth)
		}
	}
	return tc, nil
}
