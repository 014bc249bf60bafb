package fogsim

// topo.go holds the entities a run is built over: fog and cloud nodes that own a
// Resource, the devices that issue tasks, and the links between nodes.  It also
// answers the selection questions every policy asks: which node is a device's
// home, which nodes form its pool, and how neighbors rank by expected delay.

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// NodeKind separates the fog tier from the cloud tier
type NodeKind int

const (
	FogKind NodeKind = iota
	CloudKind
)

// NodeKindToStr returns the text name of a NodeKind
func NodeKindToStr(kind NodeKind) string {
	switch kind {
	case FogKind:
		return "fog"
	case CloudKind:
		return "cloud"
	}
	panic(fmt.Errorf("unknown node kind %d", kind))
}

// NodeKindFromStr maps "fog" or "cloud" to a NodeKind
func NodeKindFromStr(str string) (NodeKind, error) {
	switch str {
	case "fog", "Fog", "FOG":
		return FogKind, nil
	case "cloud", "Cloud", "CLOUD":
		return CloudKind, nil
	}
	return FogKind, fmt.Errorf("node kind %q not recognized", str)
}

// UtilSample is one observation of a node's busy fraction
type UtilSample struct {
	Time float64 `json:"time" yaml:"time"`
	Util float64 `json:"util" yaml:"util"`
}

// Node is a fog or cloud compute node
type Node struct {
	ID          int
	Name        string
	Kind        NodeKind
	Loc         Location
	Rsrc        *Resource
	utilSamples []UtilSample
}

// CreateNode is a constructor
func CreateNode(id int, name string, kind NodeKind, loc Location, capacity int) (*Node, error) {
	rsrc, err := CreateResource(name, capacity)
	if err != nil {
		return nil, err
	}
	node := &Node{ID: id, Name: name, Kind: kind, Loc: loc, Rsrc: rsrc, utilSamples: make([]UtilSample, 0)}
	return node, nil
}

// RecordUtil appends the node's current busy fraction to its sample stream.
// A faulted node records zero.
func (node *Node) RecordUtil(now float64) {
	util := 0.0
	if capacity := node.Rsrc.Capacity(); capacity > 0 {
		util = float64(capacity-node.Rsrc.Available()) / float64(capacity)
	}
	node.utilSamples = append(node.utilSamples, UtilSample{Time: now, Util: util})
}

func (node *Node) UtilSamples() []UtilSample {
	return node.utilSamples
}

// Throughput is the number of completed real tasks the node recorded past warm-up
func (node *Node) Throughput() int {
	return len(node.utilSamples)
}

// Device issues tasks.  Its baseline latency is the fixed cost of reaching the
// network, added to every leg of every dispatch.
type Device struct {
	ID          int
	Name        string
	Loc         Location
	BaseLatency float64
	seq         int
}

// CreateDevice is a constructor
func CreateDevice(id int, name string, loc Location, baseLatency float64) *Device {
	return &Device{ID: id, Name: name, Loc: loc, BaseLatency: baseLatency}
}

// NextTaskID returns a fresh TaskID.  All applications on a device share the sequence.
func (dev *Device) NextTaskID() TaskID {
	dev.seq += 1
	return TaskID{Device: dev.ID, Seq: dev.seq}
}

// Topology holds every node, device and link of a run
type Topology struct {
	Fogs    []*Node
	Clouds  []*Node
	Devices []*Device
	Links   *LinkTable

	nodeByID   map[int]*Node
	nodeByName map[string]*Node
	devByID    map[int]*Device
	homes      map[int]*Node
}

// CreateTopology is a constructor
func CreateTopology() *Topology {
	topo := new(Topology)
	topo.Fogs = make([]*Node, 0)
	topo.Clouds = make([]*Node, 0)
	topo.Devices = make([]*Device, 0)
	topo.Links = CreateLinkTable()
	topo.nodeByID = make(map[int]*Node)
	topo.nodeByName = make(map[string]*Node)
	topo.devByID = make(map[int]*Device)
	topo.homes = make(map[int]*Node)
	return topo
}

// AddNode creates a node and files it under its tier
func (topo *Topology) AddNode(id int, name string, kind NodeKind, loc Location, capacity int) (*Node, error) {
	if _, present := topo.nodeByID[id]; present {
		return nil, fmt.Errorf("node id %d used twice", id)
	}
	if _, present := topo.nodeByName[name]; present {
		return nil, fmt.Errorf("node name %s used twice", name)
	}
	node, err := CreateNode(id, name, kind, loc, capacity)
	if err != nil {
		return nil, err
	}
	topo.nodeByID[id] = node
	topo.nodeByName[name] = node
	switch kind {
	case FogKind:
		topo.Fogs = append(topo.Fogs, node)
	case CloudKind:
		topo.Clouds = append(topo.Clouds, node)
	default:
		panic(fmt.Errorf("unknown node kind %d", kind))
	}
	return node, nil
}

// AddDevice creates a device
func (topo *Topology) AddDevice(id int, name string, loc Location, baseLatency float64) (*Device, error) {
	if _, present := topo.devByID[id]; present {
		return nil, fmt.Errorf("device id %d used twice", id)
	}
	dev := CreateDevice(id, name, loc, baseLatency)
	topo.devByID[id] = dev
	topo.Devices = append(topo.Devices, dev)
	return dev, nil
}

// AddLink joins the two named nodes
func (topo *Topology) AddLink(nameA, nameB string, bandwidth float64) (*Link, error) {
	nodeA, presentA := topo.nodeByName[nameA]
	nodeB, presentB := topo.nodeByName[nameB]
	if !presentA || !presentB {
		return nil, fmt.Errorf("link %s-%s names an unknown node", nameA, nameB)
	}
	link, err := CreateLink(nodeA, nodeB, bandwidth)
	if err != nil {
		return nil, err
	}
	if err := topo.Links.Add(link); err != nil {
		return nil, err
	}
	return link, nil
}

func (topo *Topology) NodeByID(id int) (*Node, bool) {
	node, present := topo.nodeByID[id]
	return node, present
}

func (topo *Topology) NodeByName(name string) (*Node, bool) {
	node, present := topo.nodeByName[name]
	return node, present
}

// Nodes returns fogs then clouds
func (topo *Topology) Nodes() []*Node {
	nodes := make([]*Node, 0, len(topo.Fogs)+len(topo.Clouds))
	nodes = append(nodes, topo.Fogs...)
	return append(nodes, topo.Clouds...)
}

// Cloud is the cloud node every policy falls back on: the last one listed
func (topo *Topology) Cloud() *Node {
	if len(topo.Clouds) == 0 {
		return nil
	}
	return topo.Clouds[len(topo.Clouds)-1]
}

// HomeNode is the fog nearest the device.  Equal distances keep roster order.
// The answer never changes during a run, so it is computed once per device.
func (topo *Topology) HomeNode(dev *Device) *Node {
	if home, present := topo.homes[dev.ID]; present {
		return home
	}
	var home *Node
	best := 0.0
	for _, fog := range topo.Fogs {
		dist := dev.Loc.Distance(fog.Loc)
		if home == nil || dist < best {
			home = fog
			best = dist
		}
	}
	topo.homes[dev.ID] = home
	return home
}

// rankedNode pairs a node with the score it is sorted by
type rankedNode struct {
	node  *Node
	score float64
}

func sortRanked(ranked []rankedNode) []*Node {
	slices.SortStableFunc(ranked, func(a, b rankedNode) int { return cmp.Compare(a.score, b.score) })
	nodes := make([]*Node, len(ranked))
	for idx, rn := range ranked {
		nodes[idx] = rn.node
	}
	return nodes
}

// Pool returns up to k fogs linked to home, nearest first, where a fog's
// distance is the device baseline plus the current latency of its link to home
func (topo *Topology) Pool(dev *Device, home *Node, k int) []*Node {
	ranked := make([]rankedNode, 0)
	for _, fog := range topo.Fogs {
		if fog == home {
			continue
		}
		link, present := topo.Links.Between(home, fog)
		if !present {
			continue
		}
		ranked = append(ranked, rankedNode{node: fog, score: dev.BaseLatency + link.Latency()})
	}
	nodes := sortRanked(ranked)
	if len(nodes) > k {
		nodes = nodes[:k]
	}
	return nodes
}

// SortedNeighbors orders the members of domain linked to home by link latency
// plus the member's current waiting-time estimate, smallest first
func (topo *Topology) SortedNeighbors(dev *Device, home *Node, domain []*Node) []*Node {
	ranked := make([]rankedNode, 0, len(domain))
	for _, nbr := range domain {
		link, present := topo.Links.Between(home, nbr)
		if !present {
			continue
		}
		score := dev.BaseLatency + link.Latency() + nbr.Rsrc.WaitingTime()
		ranked = append(ranked, rankedNode{node: nbr, score: score})
	}
	return sortRanked(ranked)
}

// LegLatency is the one-way latency from dev to target when dev's home is home.
// Reaching the home node (or any node not linked to home, such as the cloud) costs
// the baseline plus the device-to-node distance, reaching a linked node costs
// the baseline plus the current latency of the home link, which is returned too.
func (topo *Topology) LegLatency(dev *Device, home, target *Node) (float64, *Link) {
	if home != target {
		if link, present := topo.Links.Between(home, target); present {
			return dev.BaseLatency + link.Latency(), link
		}
	}
	return dev.BaseLatency + dev.Loc.Distance(target.Loc), nil
}

// Validate checks that a run can be made over the topology
func (topo *Topology) Validate() error {
	errs := make([]error, 0)
	if len(topo.Fogs) == 0 {
		errs = append(errs, fmt.Errorf("topology has no fog nodes"))
	}
	if len(topo.Devices) == 0 {
		errs = append(errs, fmt.Errorf("topology has no devices"))
	}
	return ReportErrs(errs)
}
