package fogsim

import (
	"math"
)

// cloudAlg probes home and the nearest pool node together on every task, and
// decides from their answers whether the cloud is worth a probe too.  Tmin and
// Tmax follow the mean and the maximum of the best home-or-pool response seen
// so far.  The chance of probing the cloud grows while home and pool are both
// slower than Tmin; once the cloud is being probed it keeps being probed until
// it loses and a draw against the decayed probability turns probing off.
type cloudAlg struct {
	*dispatcher
	poolSize   int
	cfg        CloudAlgCfg
	prob       float64
	probeCloud bool
	history    *Tally
}

func createCloudAlg(dsp *dispatcher, poolSize int, cfg CloudAlgCfg) *cloudAlg {
	return &cloudAlg{dispatcher: dsp, poolSize: poolSize, cfg: cfg, prob: cfg.InitProb,
		history: CreateTally("cloudalg sojourn history")}
}

func (ca *cloudAlg) Kind() PolicyKind {
	return CloudAlgPolicy
}

// thresholds returns Tmin and Tmax
func (ca *cloudAlg) thresholds() (float64, float64) {
	if ca.cfg.FreezeThresholds {
		return ca.cfg.Tmin, ca.cfg.Tmax
	}
	if ca.history.NumberObs() == 0 {
		return 0.0, 0.0
	}
	return ca.history.Average(), ca.history.Max()
}

func (ca *cloudAlg) Dispatch(eng *Engine, task *Task, done Done) {
	tmin, tmax := ca.thresholds()

	probes := []probe{{target: task.Home, queue: LocalQueue, role: Real}}
	if pool := ca.topo.Pool(task.Device(), task.Home, ca.poolSize); len(pool) > 0 {
		probes = append(probes, probe{target: pool[0], queue: RemoteQueue, role: Real})
	}

	ca.fanOut(eng, task, probes, func(eng *Engine, results []ProbeResult) {
		homeLat := results[0].Latency
		poolLat := math.Inf(1)
		if len(results) > 1 {
			poolLat = results[1].Latency
		}
		bestIdx := fastest(results)
		best := results[bestIdx]
		ca.history.Add(best.Latency)

		if !ca.decideCloud(homeLat, poolLat, tmin, tmax) {
			ca.report(eng, task, best, done)
			return
		}
		cloud := ca.topo.Cloud()
		if cloud == nil {
			ca.report(eng, task, best, done)
			return
		}
		ca.launch(eng, task, probe{target: cloud, queue: LocalQueue, role: Real},
			func(eng *Engine, cres ProbeResult) {
				if best.Latency < cres.Latency {
					ca.prob *= ca.cfg.CloudDecay
					if ca.rng.RandU01() < 1.0-ca.prob {
						ca.probeCloud = false
					}
					ca.report(eng, task, best, done)
					return
				}
				ca.report(eng, task, cres, done)
			})
	})
}

// decideCloud updates the probe probability and reports whether the cloud is probed
func (ca *cloudAlg) decideCloud(homeLat, poolLat, tmin, tmax float64) bool {
	if ca.probeCloud {
		return true
	}
	if !(homeLat > tmin && poolLat > tmin) {
		return false
	}
	ca.prob = math.Min(ca.prob+ca.cfg.Increment, ca.cfg.CapLevel)
	if (homeLat > tmax && poolLat > tmax) || ca.rng.RandU01() < ca.prob {
		ca.probeCloud = true
	}
	return ca.probeCloud
}

func (ca *cloudAlg) report(eng *Engine, task *Task, res ProbeResult, done Done) {
	done(eng, Outcome{Task: task, Response: res.Latency, Tier: tierOf(task, res.Node), Node: res.Node,
		Penalized: res.Penalized})
}
