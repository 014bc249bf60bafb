package fogsim

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// ServiceCfg describes the distribution service times are drawn from.
// Dist is one of "weibull", "exponential", "constant".
type ServiceCfg struct {
	Dist  string  `json:"dist" yaml:"dist"`
	Shape float64 `json:"shape" yaml:"shape"`
	Rate  float64 `json:"rate" yaml:"rate"`
	Shift float64 `json:"shift" yaml:"shift"`
	Mean  float64 `json:"mean" yaml:"mean"`
}

// FaultCfg names the task window during which nodes are forced down.  When
// Nodes is empty the first Count fogs of the roster are faulted.
type FaultCfg struct {
	Start int      `json:"start" yaml:"start"`
	End   int      `json:"end" yaml:"end"`
	Count int      `json:"count" yaml:"count"`
	Nodes []string `json:"nodes" yaml:"nodes"`
}

// CloudAlgCfg holds the constants of the adaptive cloud-probe policy
type CloudAlgCfg struct {
	CloudDecay float64 `json:"clouddecay" yaml:"clouddecay"`
	CapLevel   float64 `json:"caplevel" yaml:"caplevel"`
	Increment  float64 `json:"increment" yaml:"increment"`
	InitProb   float64 `json:"initprob" yaml:"initprob"`

	// when FreezeThresholds is set Tmin and Tmax keep the values below
	// instead of following the sojourn history
	FreezeThresholds bool    `json:"freezethresholds" yaml:"freezethresholds"`
	Tmin             float64 `json:"tmin" yaml:"tmin"`
	Tmax             float64 `json:"tmax" yaml:"tmax"`
}

// RunCfg gathers every numeric and symbolic parameter of one run
type RunCfg struct {
	Name          string      `json:"name" yaml:"name"`
	Policy        string      `json:"policy" yaml:"policy"`
	TotalRequests int         `json:"totalrequests" yaml:"totalrequests"`
	Warmup        int         `json:"warmup" yaml:"warmup"`
	AppsPerDevice int         `json:"appsperdevice" yaml:"appsperdevice"`
	Units         int         `json:"units" yaml:"units"`
	Alpha         float64     `json:"alpha" yaml:"alpha"`
	Discipline    string      `json:"discipline" yaml:"discipline"`
	Decay         float64     `json:"decay" yaml:"decay"`
	Order         float64     `json:"order" yaml:"order"`
	Bandwidth     float64     `json:"bandwidth" yaml:"bandwidth"`
	CloudCapacity int         `json:"cloudcapacity" yaml:"cloudcapacity"`
	PoolSize      int         `json:"poolsize" yaml:"poolsize"`
	ZoneSize      int         `json:"zonesize" yaml:"zonesize"`
	Domain        int         `json:"domain" yaml:"domain"`
	Threshold     float64     `json:"threshold" yaml:"threshold"`
	TimeLimit     float64     `json:"timelimit" yaml:"timelimit"`
	StartSlots    int         `json:"startslots" yaml:"startslots"`
	StartSpacing  float64     `json:"startspacing" yaml:"startspacing"`
	Trace         bool        `json:"trace" yaml:"trace"`
	Fault         FaultCfg    `json:"fault" yaml:"fault"`
	Service       ServiceCfg  `json:"service" yaml:"service"`
	CloudAlg      CloudAlgCfg `json:"cloudalg" yaml:"cloudalg"`
}

// DefaultRunCfg returns the configuration of the reference experiments
func DefaultRunCfg() *RunCfg {
	rc := new(RunCfg)
	rc.Name = "fogsim"
	rc.Policy = PolicyKindToStr(HomeFogPolicy)
	rc.TotalRequests = 2000
	rc.Warmup = 100
	rc.AppsPerDevice = 1
	rc.Units = 2
	rc.Alpha = 0.5
	rc.Discipline = DisciplineToStr(FIFO)
	rc.Decay = 0.5
	rc.Order = 1.0
	rc.Bandwidth = 1000.0
	rc.CloudCapacity = 100
	rc.PoolSize = 3
	rc.ZoneSize = 5
	rc.Domain = 4
	rc.Threshold = 0.05
	rc.TimeLimit = 1e8
	rc.StartSlots = 6
	rc.StartSpacing = 0.1
	rc.Fault = FaultCfg{Start: 500, End: 800, Count: 0, Nodes: []string{}}
	rc.Service = ServiceCfg{Dist: "weibull", Shape: 1.0, Rate: 4.0, Shift: 0.0}
	rc.CloudAlg = CloudAlgCfg{CloudDecay: 0.5, CapLevel: 0.8, Increment: 0.1, InitProb: 0.5}
	return rc
}

var serviceDists = []string{"weibull", "exponential", "constant", ""}

// Validate gathers every problem with the configuration into one error
func (rc *RunCfg) Validate() error {
	errs := make([]error, 0)
	if _, err := PolicyKindFromStr(rc.Policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := DisciplineFromStr(rc.Discipline); err != nil {
		errs = append(errs, err)
	}
	if rc.TotalRequests < 1 {
		errs = append(errs, fmt.Errorf("total requests must be positive, got %d", rc.TotalRequests))
	}
	if rc.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup cannot be negative, got %d", rc.Warmup))
	}
	if rc.AppsPerDevice < 1 {
		errs = append(errs, fmt.Errorf("applications per device must be positive, got %d", rc.AppsPerDevice))
	}
	if rc.Units < 1 {
		errs = append(errs, fmt.Errorf("units per request must be positive, got %d", rc.Units))
	}
	if !(rc.Alpha > 0.0 && rc.Alpha <= 1.0) {
		errs = append(errs, fmt.Errorf("alpha %g: %w", rc.Alpha, ErrBadAlpha))
	}
	if !(rc.Decay > 0.0 && rc.Decay <= 1.0) {
		errs = append(errs, fmt.Errorf("decay must lie in (0,1], got %g", rc.Decay))
	}
	if !(rc.Bandwidth > 0.0) {
		errs = append(errs, fmt.Errorf("bandwidth must be positive, got %g", rc.Bandwidth))
	}
	if rc.CloudCapacity < 0 {
		errs = append(errs, fmt.Errorf("cloud capacity %d: %w", rc.CloudCapacity, ErrNegativeCapacity))
	}
	if rc.PoolSize < 1 || rc.ZoneSize < 1 || rc.Domain < 1 {
		errs = append(errs, fmt.Errorf("pool size, zone size and domain must be positive, got %d, %d, %d",
			rc.PoolSize, rc.ZoneSize, rc.Domain))
	}
	if rc.Fault.End < rc.Fault.Start {
		errs = append(errs, fmt.Errorf("fault window ends at %d before it starts at %d", rc.Fault.End, rc.Fault.Start))
	}
	if rc.Fault.Count < 0 {
		errs = append(errs, fmt.Errorf("number of faulted nodes cannot be negative, got %d", rc.Fault.Count))
	}
	if !slices.Contains(serviceDists, rc.Service.Dist) {
		errs = append(errs, fmt.Errorf("unknown service distribution %q", rc.Service.Dist))
	}
	if !(rc.CloudAlg.CloudDecay > 0.0 && rc.CloudAlg.CloudDecay <= 1.0) {
		errs = append(errs, fmt.Errorf("cloud decay must lie in (0,1], got %g", rc.CloudAlg.CloudDecay))
	}
	if rc.CloudAlg.CapLevel < 0.0 || rc.CloudAlg.CapLevel > 1.0 || rc.CloudAlg.InitProb < 0.0 || rc.CloudAlg.InitProb > 1.0 {
		errs = append(errs, fmt.Errorf("cloud probe probabilities must lie in [0,1]"))
	}
	if rc.StartSlots < 1 || rc.StartSpacing < 0.0 {
		errs = append(errs, fmt.Errorf("start slots must be positive and their spacing non-negative, got %d and %g",
			rc.StartSlots, rc.StartSpacing))
	}
	if !(rc.TimeLimit > 0.0 && rc.TimeLimit <= MaxRunSeconds()) {
		errs = append(errs, fmt.Errorf("time limit must lie in (0,%g], got %g", MaxRunSeconds(), rc.TimeLimit))
	}
	return ReportErrs(errs)
}

// UseYAML reports whether filename names a YAML file (as opposed to JSON)
func UseYAML(filename string) (bool, error) {
	switch path.Ext(filename) {
	case ".yaml", ".YAML", ".yml":
		return true, nil
	case ".json", ".JSON":
		return false, nil
	}
	return false, fmt.Errorf("file %s has neither a yaml nor a json extension", filename)
}

// marshalByExt serializes v as YAML or JSON, per the extension of filename
func marshalByExt(filename string, v any) ([]byte, error) {
	useYAML, err := UseYAML(filename)
	if err != nil {
		return nil, err
	}
	if useYAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "\t")
}

// writeByExt stores v in filename, serialized per its extension
func writeByExt(filename string, v any) error {
	bytes, merr := marshalByExt(filename, v)
	if merr != nil {
		return merr
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		return cerr
	}
	_, werr := f.Write(bytes)
	if werr != nil {
		f.Close()
		return werr
	}
	return f.Close()
}

// WriteToFile stores the RunCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (rc *RunCfg) WriteToFile(filename string) error {
	return writeByExt(filename, *rc)
}

// ReadRunCfg deserializes a byte slice holding a representation of a RunCfg struct.
// If dict is empty the file whose name is given is read to acquire the bytes.
// Fields the representation leaves out keep their DefaultRunCfg values.
func ReadRunCfg(filename string, useYAML bool, dict []byte) (*RunCfg, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	rc := DefaultRunCfg()
	if useYAML {
		err = yaml.Unmarshal(dict, rc)
	} else {
		err = json.Unmarshal(dict, rc)
	}

	if err != nil {
		return nil, err
	}

	return rc, nil
}
