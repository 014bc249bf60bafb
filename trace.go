package fogsim

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
)

type TraceInst struct {
	TraceTime string `json:"tracetime" yaml:"tracetime"`
	TraceType string `json:"tracetype" yaml:"tracetype"`
	TraceStr  string `json:"tracestr" yaml:"tracestr"`
}

// NameType is an entry in a dictionary created for a trace
// that maps object id numbers to a (name,type) pair
type NameType struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// TraceManager gathers a record of every task of a run.  Records are kept per
// application; the id dictionary names nodes and applications.
type TraceManager struct {
	// run uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of the run
	ExpName string `json:"expname" yaml:"expname"`

	// identifier stamped on the run
	RunID string `json:"runid" yaml:"runid"`

	// text name associated with each objID
	NameByID map[int]NameType `json:"namebyid" yaml:"namebyid"`

	// all trace records for this run, by application id
	Traces map[int][]TraceInst `json:"traces" yaml:"traces"`
}

// CreateTraceManager is a constructor.  It saves the name of the run
// and a flag indicating whether the trace manager is active.  By testing this
// flag we can inhibit the activity of gathering a trace when we don't want it,
// while embedding calls to its methods everywhere we need them when it is
func CreateTraceManager(expName, runID string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.RunID = runID
	tm.NameByID = make(map[int]NameType)
	tm.Traces = make(map[int][]TraceInst)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm.InUse
}

// AddTrace stores a trace record under execID
func (tm *TraceManager) AddTrace(vrt vrtime.Time, execID int, trace TraceInst) {
	if !tm.InUse {
		return
	}
	tm.Traces[execID] = append(tm.Traces[execID], trace)
}

// AddName is used to add an element to the id -> (name,type) dictionary for the trace file
func (tm *TraceManager) AddName(id int, name string, objDesc string) error {
	if !tm.InUse {
		return nil
	}
	if _, present := tm.NameByID[id]; present {
		return fmt.Errorf("duplicated id %d in trace dictionary", id)
	}
	tm.NameByID[id] = NameType{Name: name, Type: objDesc}
	return nil
}

// Len is the number of records gathered
func (tm *TraceManager) Len() int {
	total := 0
	for _, records := range tm.Traces {
		total += len(records)
	}
	return total
}

// WriteToFile stores the traces to the file whose name is given, serialized
// to json or yaml per its extension.  With globalOrder every record is merged
// into one list sorted by time.
func (tm *TraceManager) WriteToFile(filename string, globalOrder bool) error {
	if !tm.InUse {
		return nil
	}
	if !globalOrder {
		return writeByExt(filename, *tm)
	}

	ntm := CreateTraceManager(tm.ExpName, tm.RunID, tm.InUse)
	for key, value := range tm.NameByID {
		ntm.NameByID[key] = value
	}
	merged := make([]TraceInst, 0, tm.Len())
	for _, valueList := range tm.Traces {
		merged = append(merged, valueList...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		v1, _ := strconv.ParseFloat(merged[i].TraceTime, 64)
		v2, _ := strconv.ParseFloat(merged[j].TraceTime, 64)
		return v1 < v2
	})
	ntm.Traces[0] = merged
	return writeByExt(filename, *ntm)
}

// TaskTrace is the record of one resolved task
type TaskTrace struct {
	Time      float64 `yaml:"time"`
	Ticks     int64   `yaml:"ticks"`
	Priority  int64   `yaml:"priority"`
	AppID     int     `yaml:"appid"`
	TaskID    string  `yaml:"taskid"`
	Index     int     `yaml:"index"`
	Tier      string  `yaml:"tier"`
	NodeID    int     `yaml:"nodeid"`
	ServTime  float64 `yaml:"servtime"`
	Response  float64 `yaml:"response"`
	Probes    int     `yaml:"probes"`
	Penalized bool    `yaml:"penalized"`
	Legs      []Leg   `yaml:"legs"`
}

func (tt *TaskTrace) Serialize() string {
	bytes, merr := yaml.Marshal(*tt)
	if merr != nil {
		panic(merr)
	}
	return string(bytes[:])
}

// Record makes TraceManager an Observer of a Workload
func (tm *TraceManager) Record(eng *Engine, out Outcome) {
	if !tm.InUse {
		return
	}
	vrt := eng.EvtMgr.CurrentTime()
	task := out.Task
	tt := &TaskTrace{Time: vrt.Seconds(), Ticks: vrt.Ticks(), Priority: vrt.Pri(), AppID: task.App.ID,
		TaskID: task.ID.String(), Index: task.Index, Tier: TierToStr(out.Tier), NodeID: out.Node.ID,
		ServTime: task.ServTime, Response: out.Response, Probes: task.Probes, Penalized: out.Penalized,
		Legs: task.Legs}

	traceTime := strconv.FormatFloat(tt.Time, 'f', -1, 64)
	trcInst := TraceInst{TraceTime: traceTime, TraceType: "task", TraceStr: tt.Serialize()}
	tm.AddTrace(vrt, task.App.ID, trcInst)
}
