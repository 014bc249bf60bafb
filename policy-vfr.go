package fogsim

import (
	"math"
)

// vfr races a task across tiers.  Home is always probed.  The pool is probed
// only when home took longer than poolDelay, and the cloud only when home and
// pool both took longer than cloudDelay.  Every leg holds units on its node;
// once the race is over the fastest leg is settled as the real request and the
// others as dummies, so only the reported one enters the node statistics.
// A threshold that was not crossed decays, one that was crossed is reset to
// |next tier - best so far| * probes^order.  The without-cloud variant stops
// at the pool.
type vfr struct {
	*dispatcher
	poolSize    int
	decay       float64
	order       float64
	withCloud   bool
	poolDelay   float64
	cloudDelay  float64
	poolProbes  int
	cloudProbes int
	poolBest    map[int]*Node
}

func createVFR(dsp *dispatcher, poolSize int, decay, order float64, withCloud bool) *vfr {
	return &vfr{dispatcher: dsp, poolSize: poolSize, decay: decay, order: order, withCloud: withCloud,
		poolBest: make(map[int]*Node)}
}

func (vf *vfr) Kind() PolicyKind {
	if vf.withCloud {
		return VFRPolicy
	}
	return WithoutCloudVFRPolicy
}

// PoolDelay is the current home-to-pool threshold
func (vf *vfr) PoolDelay() float64 {
	return vf.poolDelay
}

// CloudDelay is the current threshold for probing the cloud
func (vf *vfr) CloudDelay() float64 {
	return vf.cloudDelay
}

func (vf *vfr) Dispatch(eng *Engine, task *Task, done Done) {
	vf.launch(eng, task, probe{target: task.Home, queue: LocalQueue, tentative: true},
		func(eng *Engine, home ProbeResult) {
			if !(home.Latency > vf.poolDelay) {
				vf.poolDelay *= vf.decay
				vf.resolve(eng, task, []ProbeResult{home}, done)
				return
			}
			vf.probePool(eng, task, home, done)
		})
}

// poolTargets returns the pool nodes to race.  The first race of an application
// probes the whole pool, later ones only the node that won the first.
func (vf *vfr) poolTargets(task *Task) []*Node {
	if best, present := vf.poolBest[task.App.ID]; present {
		return []*Node{best}
	}
	return vf.topo.Pool(task.Device(), task.Home, vf.poolSize)
}

func (vf *vfr) probePool(eng *Engine, task *Task, home ProbeResult, done Done) {
	targets := vf.poolTargets(task)
	if len(targets) == 0 {
		vf.poolDelay *= vf.decay
		vf.resolve(eng, task, []ProbeResult{home}, done)
		return
	}
	probes := make([]probe, len(targets))
	for idx, target := range targets {
		probes[idx] = probe{target: target, queue: RemoteQueue, tentative: true}
	}

	vf.fanOut(eng, task, probes, func(eng *Engine, results []ProbeResult) {
		pool := results[fastest(results)]
		if _, present := vf.poolBest[task.App.ID]; !present {
			vf.poolBest[task.App.ID] = pool.Node
		}
		vf.poolProbes += 1
		vf.poolDelay = math.Abs(pool.Latency-home.Latency) * math.Pow(float64(vf.poolProbes), vf.order)

		probed := append([]ProbeResult{home}, results...)
		cloud := vf.topo.Cloud()
		if !vf.withCloud || cloud == nil || !(home.Latency > vf.cloudDelay && pool.Latency > vf.cloudDelay) {
			if vf.withCloud {
				vf.cloudDelay *= vf.decay
			}
			vf.resolve(eng, task, probed, done)
			return
		}
		vf.launch(eng, task, probe{target: cloud, queue: LocalQueue, tentative: true},
			func(eng *Engine, cres ProbeResult) {
				vf.cloudProbes += 1
				nearest := math.Min(home.Latency, pool.Latency)
				vf.cloudDelay = math.Abs(cres.Latency-nearest) * math.Pow(float64(vf.cloudProbes), vf.order)
				vf.resolve(eng, task, append(probed, cres), done)
			})
	})
}

// resolve reports the plain minimum over every leg of the race, settling that
// leg as real and the rest as dummies
func (vf *vfr) resolve(eng *Engine, task *Task, probed []ProbeResult, done Done) {
	bestIdx := fastest(probed)
	for idx := range probed {
		role := Dummy
		if idx == bestIdx {
			role = Real
		}
		vf.settle(eng, task, &probed[idx], role)
	}
	if eng.Stopped() {
		return
	}
	best := probed[bestIdx]
	done(eng, Outcome{Task: task, Response: best.Latency, Tier: tierOf(task, best.Node), Node: best.Node,
		Penalized: best.Penalized})
}
