package fogsim

// file desc-topo.go holds the serializable description of a topology: the
// nodes, devices and links a run is built over.  A description is written and
// read as YAML or JSON, and turned into a Topology by BuildTopology.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NodeDesc describes a fog or cloud node.  Kind is "fog" or "cloud".  A cloud
// with Capacity 0 takes the run's default cloud capacity.
type NodeDesc struct {
	ID        int     `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Kind      string  `json:"kind" yaml:"kind"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Capacity  int     `json:"capacity" yaml:"capacity"`
}

// DeviceDesc describes a device and its fixed baseline latency
type DeviceDesc struct {
	ID          int     `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Longitude   float64 `json:"longitude" yaml:"longitude"`
	Latitude    float64 `json:"latitude" yaml:"latitude"`
	BaseLatency float64 `json:"baselatency" yaml:"baselatency"`
}

// LinkDesc joins the nodes named A and B.  A zero Bandwidth takes the run's default.
type LinkDesc struct {
	A         string  `json:"a" yaml:"a"`
	B         string  `json:"b" yaml:"b"`
	Bandwidth float64 `json:"bandwidth" yaml:"bandwidth"`
}

// TopoCfg is the complete description of a topology
type TopoCfg struct {
	Name    string       `json:"name" yaml:"name"`
	Nodes   []NodeDesc   `json:"nodes" yaml:"nodes"`
	Devices []DeviceDesc `json:"devices" yaml:"devices"`
	Links   []LinkDesc   `json:"links" yaml:"links"`
}

// CreateTopoCfg is an initialization constructor.
// Its output struct has methods for integrating data.
func CreateTopoCfg(name string) *TopoCfg {
	tc := new(TopoCfg)
	tc.Name = name
	tc.Nodes = make([]NodeDesc, 0)
	tc.Devices = make([]DeviceDesc, 0)
	tc.Links = make([]LinkDesc, 0)
	return tc
}

// AddNode appends a node description, giving it the next free id
func (tc *TopoCfg) AddNode(name string, kind NodeKind, loc Location, capacity int) NodeDesc {
	nd := NodeDesc{ID: len(tc.Nodes), Name: name, Kind: NodeKindToStr(kind), Longitude: loc.Longitude,
		Latitude: loc.Latitude, Capacity: capacity}
	tc.Nodes = append(tc.Nodes, nd)
	return nd
}

// AddDevice appends a device description, giving it the next free id
func (tc *TopoCfg) AddDevice(name string, loc Location, baseLatency float64) DeviceDesc {
	dd := DeviceDesc{ID: len(tc.Devices), Name: name, Longitude: loc.Longitude, Latitude: loc.Latitude,
		BaseLatency: baseLatency}
	tc.Devices = append(tc.Devices, dd)
	return dd
}

// AddLink appends a link description
func (tc *TopoCfg) AddLink(nameA, nameB string, bandwidth float64) {
	tc.Links = append(tc.Links, LinkDesc{A: nameA, B: nameB, Bandwidth: bandwidth})
}

// WriteToFile stores the TopoCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (tc *TopoCfg) WriteToFile(filename string) error {
	return writeByExt(filename, *tc)
}

// ReadTopoCfg deserializes a byte slice holding a representation of a TopoCfg struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read or the deserialization.
func ReadTopoCfg(filename string, useYAML bool, dict []byte) (*TopoCfg, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := TopoCfg{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}

	if err != nil {
		return nil, err
	}

	return &example, nil
}

// BuildTopology turns a description into a Topology.  A link without bandwidth
// takes bandwidth, a cloud without capacity takes cloudCapacity.  Every problem
// found is reported, not only the first.
func BuildTopology(tc *TopoCfg, bandwidth float64, cloudCapacity int) (*Topology, error) {
	topo := CreateTopology()
	errs := make([]error, 0)

	for _, nd := range tc.Nodes {
		kind, err := NodeKindFromStr(nd.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", nd.Name, err))
			continue
		}
		loc := Location{Longitude: nd.Longitude, Latitude: nd.Latitude}
		capacity := nd.Capacity
		if kind == CloudKind && capacity == 0 {
			capacity = cloudCapacity
		}
		if _, err := topo.AddNode(nd.ID, nd.Name, kind, loc, capacity); err != nil {
			errs = append(errs, err)
		}
	}

	for _, dd := range tc.Devices {
		loc := Location{Longitude: dd.Longitude, Latitude: dd.Latitude}
		if dd.BaseLatency < 0 {
			errs = append(errs, fmt.Errorf("device %s has negative baseline latency", dd.Name))
			continue
		}
		if _, err := topo.AddDevice(dd.ID, dd.Name, loc, dd.BaseLatency); err != nil {
			errs = append(errs, err)
		}
	}

	for _, ld := range tc.Links {
		bw := ld.Bandwidth
		if bw == 0.0 {
			bw = bandwidth
		}
		if _, err := topo.AddLink(ld.A, ld.B, bw); err != nil {
			errs = append(errs, err)
		}
	}

	if err := ReportErrs(errs); err != nil {
		return nil, err
	}
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	return topo, nil
}

// ReportErrs transforms a list of errors and transforms the non-nil ones into a single error
// with comma-separated report of all the constituent errors, and returns it.
func ReportErrs(errs []error) error {
	errMsg := make([]string, 0)
	for _, err := range errs {
		if err != nil {
			errMsg = append(errMsg, err.Error())
		}
	}
	if len(errMsg) == 0 {
		return nil
	}

	return errors.New(strings.Join(errMsg, ","))
}

// CheckReadableFiles probes the file system to ensure that every
// one of the argument filenames exists and is readable
func CheckReadableFiles(names []string) (bool, error) {
	return CheckFiles(names, true)
}

// CheckOutputFiles probes the file system to ensure that the directory of
// every argument filename exists, so the file can be written.
func CheckOutputFiles(names []string) (bool, error) {
	return CheckFiles(names, false)
}

// CheckFiles probes the file system for the directory of every non-empty
// argument filename, optionally checking also for the existence
// of those files for the purposes of reading them.
func CheckFiles(names []string, checkExistence bool) (bool, error) {
	errs := make([]error, 0)

	for _, name := range names {
		if len(name) == 0 {
			continue
		}

		directory, _ := filepath.Split(name)
		if directory == "" {
			directory = "."
		}
		if _, err := os.Stat(directory); err != nil {
			errs = append(errs, err)
		}
		if checkExistence {
			if _, err := os.Stat(name); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) == 0 {
		return true, nil
	}
	return false, ReportErrs(errs)
}
