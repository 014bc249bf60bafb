package fogsim

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// FaultState is where a fault window stands
type FaultState int

const (
	FaultPending FaultState = iota
	FaultActive
	FaultRestored
)

// FaultStateToStr returns the text name of a FaultState
func FaultStateToStr(fs FaultState) string {
	switch fs {
	case FaultPending:
		return "pending"
	case FaultActive:
		return "active"
	case FaultRestored:
		return "restored"
	}
	panic(fmt.Errorf("unknown fault state %d", fs))
}

// FaultWindow forces a set of nodes to zero capacity while the run-wide task
// index lies in [Start, End), then gives each its capacity back
type FaultWindow struct {
	Start   int
	End     int
	nodes   []*Node
	saved   map[int]int
	state   FaultState
	logger  hclog.Logger
	metrics *Metrics
}

// CreateFaultWindow selects the nodes cfg names, or the first cfg.Count fogs
func CreateFaultWindow(cfg FaultCfg, topo *Topology, logger hclog.Logger, metrics *Metrics) (*FaultWindow, error) {
	fw := &FaultWindow{Start: cfg.Start, End: cfg.End, saved: make(map[int]int), logger: logger, metrics: metrics}
	fw.nodes = make([]*Node, 0)

	if len(cfg.Nodes) > 0 {
		errs := make([]error, 0)
		for _, name := range cfg.Nodes {
			node, present := topo.NodeByName(name)
			if !present {
				errs = append(errs, fmt.Errorf("fault window names unknown node %s", name))
				continue
			}
			fw.nodes = append(fw.nodes, node)
		}
		if err := ReportErrs(errs); err != nil {
			return nil, err
		}
	} else {
		count := min(cfg.Count, len(topo.Fogs))
		fw.nodes = append(fw.nodes, topo.Fogs[:count]...)
	}
	return fw, nil
}

func (fw *FaultWindow) State() FaultState {
	return fw.state
}

// Nodes returns the nodes the window faults
func (fw *FaultWindow) Nodes() []*Node {
	return fw.nodes
}

// Observe is called with the index of every task as it is issued
func (fw *FaultWindow) Observe(eng *Engine, index int) error {
	if len(fw.nodes) == 0 || fw.Start >= fw.End {
		return nil
	}
	switch fw.state {
	case FaultPending:
		if index >= fw.Start && index < fw.End {
			return fw.fail(eng, index)
		}
	case FaultActive:
		if index >= fw.End {
			return fw.restore(eng, index)
		}
	}
	return nil
}

func (fw *FaultWindow) fail(eng *Engine, index int) error {
	for _, node := range fw.nodes {
		fw.saved[node.ID] = node.Rsrc.Capacity()
		if err := node.Rsrc.SetCapacity(eng, 0); err != nil {
			return err
		}
	}
	fw.state = FaultActive
	fw.metrics.ObserveFault(FaultActive)
	fw.logger.Warn("nodes faulted", "task", index, "time", eng.Now(), "nodes", len(fw.nodes))
	return nil
}

func (fw *FaultWindow) restore(eng *Engine, index int) error {
	for _, node := range fw.nodes {
		if err := node.Rsrc.SetCapacity(eng, fw.saved[node.ID]); err != nil {
			return err
		}
	}
	fw.state = FaultRestored
	fw.metrics.ObserveFault(FaultRestored)
	fw.logger.Warn("nodes restored", "task", index, "time", eng.Now(), "nodes", len(fw.nodes))
	return nil
}
