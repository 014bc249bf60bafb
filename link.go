package fogsim

import (
	"fmt"
	"math"
)

// Location is a point in the (longitude, latitude) plane.  Distances between
// locations are plain Euclidean distances in that plane.
type Location struct {
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
}

// Distance returns the Euclidean distance from loc to other
func (loc Location) Distance(other Location) float64 {
	return math.Hypot(loc.Longitude-other.Longitude, loc.Latitude-other.Latitude)
}

// LinkLatency is the latency of a link of the given length carrying load units
// of in-flight traffic.  At or below bandwidth the latency is the length itself,
// above it the length is scaled by load/bandwidth.
func LinkLatency(load, distance, bandwidth float64) float64 {
	if load <= bandwidth {
		return distance
	}
	return distance * load / bandwidth
}

// Link joins two nodes.  It has no direction, and carries a counter of in-flight
// load that the dispatch layer raises and lowers around each request.
type Link struct {
	Name      string
	A, B      *Node
	Bandwidth float64
	load      float64
	maxLoad   float64
}

// CreateLink is a constructor
func CreateLink(a, b *Node, bandwidth float64) (*Link, error) {
	if a == b {
		return nil, fmt.Errorf("link from node %s to itself", a.Name)
	}
	if !(bandwidth > 0.0) {
		return nil, fmt.Errorf("link %s-%s needs positive bandwidth, got %g", a.Name, b.Name, bandwidth)
	}
	link := &Link{Name: a.Name + "-" + b.Name, A: a, B: b, Bandwidth: bandwidth}
	return link, nil
}

// Distance is the Euclidean distance between the link endpoints
func (link *Link) Distance() float64 {
	return link.A.Loc.Distance(link.B.Loc)
}

// Load is the in-flight load the link carries now
func (link *Link) Load() float64 {
	return link.load
}

// MaxLoad is the largest load the link has carried
func (link *Link) MaxLoad() float64 {
	return link.maxLoad
}

func (link *Link) AddLoad(units float64) {
	link.load += units
	link.maxLoad = math.Max(link.maxLoad, link.load)
}

// RemoveLoad lowers the in-flight load, never below zero
func (link *Link) RemoveLoad(units float64) {
	link.load = math.Max(0.0, link.load-units)
}

// Latency is the latency across the link at its current load
func (link *Link) Latency() float64 {
	return LinkLatency(link.load, link.Distance(), link.Bandwidth)
}

// Other returns the endpoint of link that is not node
func (link *Link) Other(node *Node) *Node {
	if link.A == node {
		return link.B
	}
	return link.A
}

// linkKey orders a pair of node ids so that each unordered pair has one key
type linkKey struct {
	lo, hi int
}

func makeLinkKey(id1, id2 int) linkKey {
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return linkKey{lo: id1, hi: id2}
}

// LinkTable holds at most one Link per unordered node pair
type LinkTable struct {
	links  map[linkKey]*Link
	byNode map[int][]*Link
	order  []*Link
}

// CreateLinkTable is a constructor
func CreateLinkTable() *LinkTable {
	return &LinkTable{links: make(map[linkKey]*Link), byNode: make(map[int][]*Link), order: make([]*Link, 0)}
}

// Add inserts link, failing if the pair is already joined
func (lt *LinkTable) Add(link *Link) error {
	key := makeLinkKey(link.A.ID, link.B.ID)
	if _, present := lt.links[key]; present {
		return fmt.Errorf("nodes %s and %s already linked", link.A.Name, link.B.Name)
	}
	lt.links[key] = link
	lt.byNode[link.A.ID] = append(lt.byNode[link.A.ID], link)
	lt.byNode[link.B.ID] = append(lt.byNode[link.B.ID], link)
	lt.order = append(lt.order, link)
	return nil
}

// Between returns the link joining the two nodes, in either order
func (lt *LinkTable) Between(a, b *Node) (*Link, bool) {
	link, present := lt.links[makeLinkKey(a.ID, b.ID)]
	return link, present
}

// Incident returns the links touching node, in insertion order
func (lt *LinkTable) Incident(node *Node) []*Link {
	return lt.byNode[node.ID]
}

// All returns every link, in insertion order
func (lt *LinkTable) All() []*Link {
	return lt.order
}

func (lt *LinkTable) Len() int {
	return len(lt.order)
}
