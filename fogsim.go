package fogsim

// fogsim.go assembles a run: it loads the run configuration and the topology
// description, builds the topology, the policy, the fault window and the
// applications, runs the engine, and condenses what happened into a Report.

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/lithammer/shortuuid"
)

var (
	ErrNotRun              = errors.New("simulation has not run")
	ErrUnfinished          = errors.New("applications still have tasks outstanding")
	ErrUnitsExceedCapacity = errors.New("units per request exceed the node's capacity")
)

// Simulation is one run of one policy over one topology
type Simulation struct {
	RunID    string
	Cfg      *RunCfg
	Topo     *Topology
	Engine   *Engine
	Policy   Policy
	Workload *Workload
	Fault    *FaultWindow
	Recorder *Recorder
	Metrics  *Metrics
	Trace    *TraceManager
	Logger   hclog.Logger
	ran      bool
}

// LoadSimulation reads a run configuration and a topology description, each
// as YAML or JSON per its extension, and builds the Simulation they describe
func LoadSimulation(runFile, topoFile string, logger hclog.Logger) (*Simulation, error) {
	empty := make([]byte, 0)
	if _, err := CheckReadableFiles([]string{runFile, topoFile}); err != nil {
		return nil, err
	}

	var rc *RunCfg
	var tc *TopoCfg
	errs := make([]error, 0)

	useYAML, err := UseYAML(runFile)
	if err == nil {
		rc, err = ReadRunCfg(runFile, useYAML, empty)
	}
	errs = append(errs, err)

	useYAML, err = UseYAML(topoFile)
	if err == nil {
		tc, err = ReadTopoCfg(topoFile, useYAML, empty)
	}
	errs = append(errs, err)

	if err := ReportErrs(errs); err != nil {
		return nil, err
	}
	return BuildSimulation(rc, tc, logger)
}

// BuildSimulation builds a Simulation from its descriptions.  A nil logger discards output.
func BuildSimulation(rc *RunCfg, tc *TopoCfg, logger hclog.Logger) (*Simulation, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	topo, err := BuildTopology(tc, rc.Bandwidth, rc.CloudCapacity)
	if err != nil {
		return nil, err
	}

	// a request larger than a live node could never be admitted
	errs := make([]error, 0)
	for _, node := range topo.Nodes() {
		if capacity := node.Rsrc.Capacity(); capacity > 0 && capacity < rc.Units {
			errs = append(errs, fmt.Errorf("node %s has capacity %d, requests take %d: %w",
				node.Name, capacity, rc.Units, ErrUnitsExceedCapacity))
		}
	}
	if err := ReportErrs(errs); err != nil {
		return nil, err
	}

	sim := &Simulation{RunID: shortuuid.New(), Cfg: rc, Topo: topo, Logger: logger}
	sim.Engine = CreateEngine()
	sim.Metrics = CreateMetrics(sim.RunID, rc.Policy)
	sim.Trace = CreateTraceManager(rc.Name, sim.RunID, rc.Trace)
	sim.Recorder = CreateRecorder()

	discipline, _ := DisciplineFromStr(rc.Discipline)
	for _, node := range topo.Nodes() {
		node.Rsrc.SetDiscipline(discipline)
		if err := node.Rsrc.SetAlpha(rc.Alpha); err != nil {
			return nil, err
		}
		node.Rsrc.Init(sim.Engine)
		if err := node.Rsrc.SetStatCollecting(sim.Engine, true); err != nil {
			return nil, err
		}
		if err := sim.Trace.AddName(node.ID, node.Name, NodeKindToStr(node.Kind)); err != nil {
			return nil, err
		}
	}

	sim.Policy, err = CreatePolicy(rc, topo, CreateRandomSource(rc.Name+"-policy"), sim.Metrics)
	if err != nil {
		return nil, err
	}
	sim.Fault, err = CreateFaultWindow(rc.Fault, topo, logger, sim.Metrics)
	if err != nil {
		return nil, err
	}

	sim.Workload = CreateWorkload(topo, sim.Policy, sim.Fault, logger)
	appID := 0
	for _, dev := range topo.Devices {
		for k := 0; k < rc.AppsPerDevice; k++ {
			rng := CreateRandomSource(fmt.Sprintf("%s-app-%d", rc.Name, appID))
			sampler, err := CreateSampler(rc.Service, rng)
			if err != nil {
				return nil, err
			}
			offset := appOffset(appID, rc.StartSlots, rc.StartSpacing)
			sim.Workload.AddApplication(CreateApplication(appID, dev, offset, sampler, rc.TotalRequests, rc.Warmup))
			appID += 1
		}
	}
	sim.Workload.AddObserver(sim.Recorder)
	sim.Workload.AddObserver(sim.Metrics)
	sim.Workload.AddObserver(sim.Trace)
	return sim, nil
}

// Run executes the simulation to completion.  The first usage error raised
// during the run aborts it and is returned.
func (sim *Simulation) Run() error {
	if sim.ran {
		return fmt.Errorf("simulation %s has already run", sim.RunID)
	}
	sim.ran = true
	sim.Logger.Info("run starting", "run", sim.RunID, "policy", sim.Cfg.Policy,
		"fogs", len(sim.Topo.Fogs), "clouds", len(sim.Topo.Clouds), "devices", len(sim.Topo.Devices),
		"applications", len(sim.Workload.Applications()))

	sim.Workload.Start(sim.Engine)
	if err := sim.Engine.Run(sim.Cfg.TimeLimit); err != nil {
		sim.Logger.Error("run aborted", "time", sim.Engine.LastTime(), "error", err)
		return err
	}

	unfinished := 0
	for _, app := range sim.Workload.Applications() {
		if !app.Finished() {
			unfinished += 1
		}
	}
	if unfinished > 0 {
		err := fmt.Errorf("run %s stopped at %g with %d of %d applications short of their quota: %w",
			sim.RunID, sim.Engine.LastTime(), unfinished, len(sim.Workload.Applications()), ErrUnfinished)
		sim.Logger.Error("run incomplete", "time", sim.Engine.LastTime(), "unfinished", unfinished)
		return err
	}
	sim.Logger.Info("run finished", "time", sim.Engine.LastTime(), "tasks", sim.Workload.Issued(),
		"events", sim.Engine.Fired())
	return nil
}

// Report condenses the run.  It fails if the run did not happen or aborted.
func (sim *Simulation) Report() (*Report, error) {
	if !sim.ran {
		return nil, ErrNotRun
	}
	if err := sim.Engine.Err(); err != nil {
		return nil, err
	}
	eng := sim.Engine
	rpt := &Report{RunID: sim.RunID, Name: sim.Cfg.Name, Policy: sim.Cfg.Policy, EndTime: eng.LastTime(),
		Tasks: sim.Workload.Issued(), Penalized: sim.Recorder.Penalized(),
		Response: sim.Recorder.Response().Summarize(), Tiers: tierReports(sim.Recorder)}
	if counter, ok := sim.Policy.(interface{ ProbesIssued() int }); ok {
		rpt.Probes = counter.ProbesIssued()
	}

	errs := make([]error, 0)
	for _, node := range sim.Topo.Nodes() {
		nr, err := nodeReport(eng, node)
		errs = append(errs, err)
		rpt.Nodes = append(rpt.Nodes, nr)
	}
	if err := ReportErrs(errs); err != nil {
		return nil, err
	}
	for _, app := range sim.Workload.Applications() {
		rpt.Apps = append(rpt.Apps, appReport(app))
	}
	for _, link := range sim.Topo.Links.All() {
		rpt.Links = append(rpt.Links, LinkReport{Name: link.Name, Distance: link.Distance(), MaxLoad: link.MaxLoad()})
	}

	sim.Logger.Info("run report", "mean response", rpt.Response.Mean, "recorded", rpt.Response.Obs,
		"penalized", rpt.Penalized)
	for _, tr := range rpt.Tiers {
		sim.Logger.Debug("tier", "tier", tr.Tier, "count", tr.Count, "percent", tr.Percent, "mean", tr.Response.Mean)
	}
	return rpt, nil
}

// WriteOutputs writes the report, the trace and the metrics to the files
// named.  An empty name skips that output.
func (sim *Simulation) WriteOutputs(reportFile, traceFile, metricsFile string) error {
	if _, err := CheckOutputFiles([]string{reportFile, traceFile, metricsFile}); err != nil {
		return err
	}
	errs := make([]error, 0)
	if reportFile != "" {
		rpt, err := sim.Report()
		if err != nil {
			return err
		}
		errs = append(errs, rpt.WriteToFile(reportFile))
	}
	if traceFile != "" {
		errs = append(errs, sim.Trace.WriteToFile(traceFile, true))
	}
	if metricsFile != "" {
		errs = append(errs, sim.Metrics.WriteToFile(metricsFile))
	}
	return ReportErrs(errs)
}
