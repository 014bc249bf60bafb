package fogsim

// minDelay serves a task at home while the home wait-time estimate is under
// threshold, otherwise at the first neighbor (ranked by link latency plus wait
// time) under threshold.  When none qualifies the task goes to the cloud, or,
// in the without-cloud variant, to the worst-ranked neighbor.
type minDelay struct {
	*dispatcher
	kind      PolicyKind
	domain    int
	threshold float64
}

func createMinDelay(dsp *dispatcher, kind PolicyKind, domain int, threshold float64) *minDelay {
	return &minDelay{dispatcher: dsp, kind: kind, domain: domain, threshold: threshold}
}

func (md *minDelay) Kind() PolicyKind {
	return md.kind
}

// choose returns the node a task is sent to
func (md *minDelay) choose(task *Task) *Node {
	home := task.Home
	if home.Rsrc.WaitingTime() < md.threshold {
		return home
	}
	dev := task.Device()
	neighbors := md.topo.SortedNeighbors(dev, home, md.topo.Pool(dev, home, md.domain))
	for _, nbr := range neighbors {
		if nbr.Rsrc.WaitingTime() < md.threshold {
			return nbr
		}
	}

	if md.kind == MinDelayPolicy {
		if cloud := md.topo.Cloud(); cloud != nil {
			return cloud
		}
	}
	if len(neighbors) > 0 {
		return neighbors[len(neighbors)-1]
	}
	return home
}

func (md *minDelay) Dispatch(eng *Engine, task *Task, done Done) {
	md.single(eng, task, md.choose(task), done)
}
