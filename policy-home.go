package fogsim

// homeFog sends every task to the device's home node
type homeFog struct {
	*dispatcher
}

func (hf *homeFog) Kind() PolicyKind {
	return HomeFogPolicy
}

func (hf *homeFog) Dispatch(eng *Engine, task *Task, done Done) {
	hf.single(eng, task, task.Home, done)
}

// powerOfTwo draws two distinct candidates and sends the task to the one with
// the shorter local wait queue.  With zoneSize 0 the candidates are every fog
// (PO2), otherwise the zoneSize fogs nearest the home node (ModPO2).
type powerOfTwo struct {
	*dispatcher
	zoneSize int
}

func (po *powerOfTwo) Kind() PolicyKind {
	if po.zoneSize > 0 {
		return ModPO2Policy
	}
	return PO2Policy
}

func (po *powerOfTwo) candidates(task *Task) []*Node {
	if po.zoneSize > 0 {
		return po.topo.Pool(task.Device(), task.Home, po.zoneSize)
	}
	return po.topo.Fogs
}

func (po *powerOfTwo) Dispatch(eng *Engine, task *Task, done Done) {
	cands := po.candidates(task)
	var target *Node
	switch len(cands) {
	case 0:
		target = task.Home
	case 1:
		target = cands[0]
	default:
		target = pickShorter(po.rng, cands)
	}
	po.single(eng, task, target, done)
}

// pickTwo draws two distinct members of nodes uniformly
func pickTwo(rng RandomSource, nodes []*Node) (*Node, *Node) {
	first := randIndex(rng, len(nodes))
	second := randIndex(rng, len(nodes)-1)
	if second >= first {
		second += 1
	}
	return nodes[first], nodes[second]
}

// pickShorter applies the power-of-two choice: the candidate with fewer
// requests in its local queue, a fair coin on ties
func pickShorter(rng RandomSource, nodes []*Node) *Node {
	first, second := pickTwo(rng, nodes)
	firstLen, secondLen := first.Rsrc.LocalQueueLen(), second.Rsrc.LocalQueueLen()
	switch {
	case firstLen < secondLen:
		return first
	case secondLen < firstLen:
		return second
	}
	if rng.RandU01() < 0.5 {
		return first
	}
	return second
}
