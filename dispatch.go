package fogsim

// dispatch.go carries a task request to one node and back.  A probe raises the
// load on the link it crosses, asks the node's Resource for units, holds them
// for the task's service time, releases them, and reports the round trip:
// the time since the task arrived, both network legs, and any fault penalty.

import (
	"math"
)

const (
	plainLoadUnit  = 1.0
	hedgedLoadUnit = 100.0
)

// probe says where a request goes and how the target's Resource files it.
// A tentative probe has its role settled once the race it belongs to resolves.
type probe struct {
	target    *Node
	queue     QueueClass
	role      Role
	tentative bool
}

// ProbeResult is the round trip one probe measured
type ProbeResult struct {
	Node      *Node
	Role      Role
	Latency   float64
	Penalized bool
	hold      *Hold
	tentative bool
}

// dispatcher holds what every policy needs to issue probes
type dispatcher struct {
	topo     *Topology
	units    int
	loadUnit float64
	rng      RandomSource
	metrics  *Metrics
	issued   int
}

func createDispatcher(topo *Topology, units int, rng RandomSource, metrics *Metrics) *dispatcher {
	return &dispatcher{topo: topo, units: units, loadUnit: plainLoadUnit, rng: rng, metrics: metrics}
}

// ProbesIssued is the number of probes this dispatcher has sent
func (dsp *dispatcher) ProbesIssued() int {
	return dsp.issued
}

// launch sends one probe for task and calls done with its result.  A faulted
// target answers with the fault penalty at once, touching neither link nor queue.
func (dsp *dispatcher) launch(eng *Engine, task *Task, pb probe, done func(eng *Engine, res ProbeResult)) {
	dsp.issued += 1
	task.Probes += 1
	answer := done
	done = func(eng *Engine, res ProbeResult) {
		task.Legs = append(task.Legs, Leg{NodeID: res.Node.ID, Latency: res.Latency})
		answer(eng, res)
	}

	target := pb.target
	var hold *Hold
	if pb.tentative {
		hold = CreateTentativeHold(dsp.units, pb.queue, task.ID, task.ServTime, task.ArrTime)
	} else {
		dsp.metrics.ObserveProbe(pb.role)
		hold = CreateHold(dsp.units, pb.queue, pb.role, task.ID, task.ServTime, task.ArrTime)
	}

	var link *Link
	var outLat float64
	reqCost, ok := target.Rsrc.Request(eng, hold, func(eng *Engine, hold *Hold) {
		eng.Schedule(task.ServTime, func(eng *Engine) {
			dsp.complete(eng, task, pb, hold, link, outLat, done)
		})
	})
	if !ok {
		if eng.Stopped() {
			return
		}
		dsp.metrics.ObservePenalty()
		res := ProbeResult{Node: target, Role: pb.role, Latency: reqCost, Penalized: true,
			tentative: pb.tentative}
		eng.Schedule(0.0, func(eng *Engine) { done(eng, res) })
		return
	}

	// the grant runs no earlier than the next action, so the leg is fixed before it is read
	if target != task.Home {
		link, _ = dsp.topo.Links.Between(task.Home, target)
	}
	if link != nil {
		link.AddLoad(dsp.loadUnit)
	}
	outLat, _ = dsp.topo.LegLatency(task.Device(), task.Home, target)
}

// complete runs when a probe's service time has elapsed
func (dsp *dispatcher) complete(eng *Engine, task *Task, pb probe, hold *Hold, link *Link,
	outLat float64, done func(eng *Engine, res ProbeResult)) {

	target := pb.target
	penalty, err := target.Rsrc.Release(eng, hold, hold.Units)
	if err != nil {
		eng.Fail(err)
		return
	}
	if !pb.tentative && task.PastWarmup() {
		target.RecordUtil(eng.Now())
	}

	// the ledger holds the completion offset of tracked requests, untracked
	// ones measure it directly
	offset := eng.Now() - task.ArrTime
	if pb.role != Untracked {
		if posted, present := target.Rsrc.Ledger().Take(task.ID, pb.role); present {
			offset = posted
		}
	}

	retLat := outLat
	if link != nil {
		link.AddLoad(dsp.loadUnit)
		retLat, _ = dsp.topo.LegLatency(task.Device(), task.Home, target)
		link.RemoveLoad(2 * dsp.loadUnit)
	}
	if penalty > 0 {
		dsp.metrics.ObservePenalty()
	}

	res := ProbeResult{Node: target, Role: pb.role, Latency: offset + outLat + retLat + penalty,
		Penalized: penalty > 0, hold: hold, tentative: pb.tentative}
	done(eng, res)
}

// settle names the role of a tentative probe once its race is decided.  The
// winner is recorded as the real request of the task; losers are retired as
// dummies.  Either way the ledger slot just posted is consumed.
func (dsp *dispatcher) settle(eng *Engine, task *Task, res *ProbeResult, role Role) {
	if !res.tentative {
		return
	}
	res.Role = role
	res.tentative = false
	dsp.metrics.ObserveProbe(role)
	if res.hold == nil {
		// a faulted target never admitted the request
		return
	}
	rsrc := res.Node.Rsrc
	if err := rsrc.Settle(res.hold, role); err != nil {
		eng.Fail(err)
		return
	}
	rsrc.Ledger().Take(task.ID, role)
	if role == Real && task.PastWarmup() {
		res.Node.RecordUtil(eng.Now())
	}
}

// single dispatches task to one node and reports that probe as the outcome
func (dsp *dispatcher) single(eng *Engine, task *Task, target *Node, done Done) {
	dsp.launch(eng, task, probe{target: target, queue: LocalQueue, role: Untracked},
		func(eng *Engine, res ProbeResult) {
			done(eng, Outcome{Task: task, Response: res.Latency, Tier: tierOf(task, target),
				Node: target, Penalized: res.Penalized})
		})
}

// fanOut sends every probe at once and calls done with all the results, in
// probe order, when the last one arrives
func (dsp *dispatcher) fanOut(eng *Engine, task *Task, probes []probe, done func(eng *Engine, results []ProbeResult)) {
	results := make([]ProbeResult, len(probes))
	pending := len(probes)
	if pending == 0 {
		eng.Schedule(0.0, func(eng *Engine) { done(eng, results) })
		return
	}
	for idx, pb := range probes {
		slot := idx
		dsp.launch(eng, task, pb, func(eng *Engine, res ProbeResult) {
			results[slot] = res
			pending -= 1
			if pending == 0 {
				done(eng, results)
			}
		})
	}
}

// fastest returns the index of the smallest latency, the first one on ties
func fastest(results []ProbeResult) int {
	best := -1
	bestLat := math.Inf(1)
	for idx, res := range results {
		if res.Latency < bestLat {
			best = idx
			bestLat = res.Latency
		}
	}
	return best
}
