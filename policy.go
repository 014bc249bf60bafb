package fogsim

import (
	"fmt"
	"sort"
)

// PolicyKind names an offloading policy
type PolicyKind int

const (
	HomeFogPolicy PolicyKind = iota
	PO2Policy
	ModPO2Policy
	MinDelayPolicy
	WithoutCloudMinDelayPolicy
	CloudAlgPolicy
	VFRPolicy
	WithoutCloudVFRPolicy
)

var policyKindToStr = map[PolicyKind]string{HomeFogPolicy: "homefog", PO2Policy: "po2",
	ModPO2Policy: "modpo2", MinDelayPolicy: "mindelay", WithoutCloudMinDelayPolicy: "withoutcloud-mindelay",
	CloudAlgPolicy: "cloudalg", VFRPolicy: "vfr", WithoutCloudVFRPolicy: "withoutcloud-vfr"}

var policyStrToKind map[string]PolicyKind = reversePolicyMap(policyKindToStr)

func reversePolicyMap(fwd map[PolicyKind]string) map[string]PolicyKind {
	rev := make(map[string]PolicyKind)
	for kind, str := range fwd {
		rev[str] = kind
	}
	return rev
}

// PolicyKindToStr returns the text name of a PolicyKind
func PolicyKindToStr(kind PolicyKind) string {
	str, present := policyKindToStr[kind]
	if !present {
		panic(fmt.Errorf("unknown policy kind %d", kind))
	}
	return str
}

// PolicyKindFromStr maps a policy name to its PolicyKind
func PolicyKindFromStr(str string) (PolicyKind, error) {
	kind, present := policyStrToKind[str]
	if !present {
		return HomeFogPolicy, fmt.Errorf("policy %q not recognized", str)
	}
	return kind, nil
}

// PolicyNames lists every policy name, sorted
func PolicyNames() []string {
	names := make([]string, 0, len(policyKindToStr))
	for _, str := range policyKindToStr {
		names = append(names, str)
	}
	sort.Strings(names)
	return names
}

// Tier is the accounting bucket a response is recorded under
type Tier int

const (
	HomeTier Tier = iota
	PoolTier
	CloudTier
)

// Tiers lists every tier in reporting order
var Tiers = []Tier{HomeTier, PoolTier, CloudTier}

// TierToStr returns the text name of a Tier
func TierToStr(tier Tier) string {
	switch tier {
	case HomeTier:
		return "home"
	case PoolTier:
		return "pool"
	case CloudTier:
		return "cloud"
	}
	panic(fmt.Errorf("unknown tier %d", tier))
}

// Outcome is what a policy reports once a task is resolved
type Outcome struct {
	Task      *Task
	Response  float64
	Tier      Tier
	Node      *Node
	Penalized bool
}

// Done receives the Outcome of a dispatched task
type Done func(eng *Engine, out Outcome)

// Policy decides where a task is served.  Dispatch returns at once; done is
// called, at the virtual time the task resolves, exactly once.
type Policy interface {
	Kind() PolicyKind
	Dispatch(eng *Engine, task *Task, done Done)
}

// CreatePolicy builds the policy rc names.  Every policy instance owns its
// adaptive state, so two runs never share it.
func CreatePolicy(rc *RunCfg, topo *Topology, rng RandomSource, metrics *Metrics) (Policy, error) {
	kind, err := PolicyKindFromStr(rc.Policy)
	if err != nil {
		return nil, err
	}
	dsp := createDispatcher(topo, rc.Units, rng, metrics)

	switch kind {
	case HomeFogPolicy:
		return &homeFog{dispatcher: dsp}, nil
	case PO2Policy:
		return &powerOfTwo{dispatcher: dsp}, nil
	case ModPO2Policy:
		return &powerOfTwo{dispatcher: dsp, zoneSize: rc.ZoneSize}, nil
	case MinDelayPolicy, WithoutCloudMinDelayPolicy:
		return createMinDelay(dsp, kind, rc.Domain, rc.Threshold), nil
	case CloudAlgPolicy:
		return createCloudAlg(dsp, rc.PoolSize, rc.CloudAlg), nil
	case VFRPolicy, WithoutCloudVFRPolicy:
		dsp.loadUnit = hedgedLoadUnit
		return createVFR(dsp, rc.PoolSize, rc.Decay, rc.Order, kind == VFRPolicy), nil
	}
	panic(fmt.Errorf("unknown policy kind %d", kind))
}

// tierOf classifies target relative to a task's home
func tierOf(task *Task, target *Node) Tier {
	switch {
	case target.Kind == CloudKind:
		return CloudTier
	case target == task.Home:
		return HomeTier
	}
	return PoolTier
}
