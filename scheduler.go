package fogsim

// scheduler.go holds the admission machinery of a compute node.  A Resource
// has an integer number of service units.  A request that finds enough units
// available is admitted at once, otherwise it joins the local or the remote
// wait queue and is admitted later, when a release frees units.  Admission
// never blocks anything: the caller hands over a Grant continuation and the
// Resource schedules it on the Engine at the virtual time the units are given.

import (
	"errors"
	"fmt"
	"math"
)

// FaultPenalty is the latency charged for reaching a node whose capacity is zero
const FaultPenalty = 12000.0

var (
	ErrOverRelease      = errors.New("trying to release more units of a resource than the holder has")
	ErrNotHeld          = errors.New("hold is not in service")
	ErrBadUnits         = errors.New("number of units must be positive")
	ErrNegativeCapacity = errors.New("capacity cannot be negative")
	ErrStatsAlreadyOn   = errors.New("already collecting statistics for this resource")
	ErrStatsOff         = errors.New("not collecting statistics for this resource")
	ErrBadAlpha         = errors.New("admission mixing parameter must lie in (0,1]")
	ErrNotSettleable    = errors.New("hold is not a released tentative hold")
)

// Discipline orders a wait queue
type Discipline int

const (
	FIFO Discipline = iota
	LIFO
)

// DisciplineFromStr maps "fifo" or "lifo" to a Discipline
func DisciplineFromStr(str string) (Discipline, error) {
	switch str {
	case "fifo", "FIFO", "":
		return FIFO, nil
	case "lifo", "LIFO":
		return LIFO, nil
	}
	return FIFO, fmt.Errorf("queue discipline %q not recognized", str)
}

// DisciplineToStr returns the text name of a Discipline
func DisciplineToStr(dsc Discipline) string {
	switch dsc {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	}
	panic(fmt.Errorf("unknown discipline %d", dsc))
}

// Grant is called once the units of a Hold have been given
type Grant func(eng *Engine, hold *Hold)

// Hold is the record of one request, from Request until it is released
// (or, for a dummy request, until it is admitted and retired)
type Hold struct {
	Units       int
	Queue       QueueClass
	Role        Role
	Task        TaskID
	ServTime    float64 // service time the requester intends to use
	ArrTime     float64 // arrival time of the task the request serves
	RequestTime float64
	AdmitTime   float64
	enqueued    float64
	ReleaseTime float64
	queued      bool
	inService   bool
	retired     bool
	tentative   bool
	released    bool
	lostFault   bool
	settled     bool
	grant       Grant
}

// CreateHold is a constructor for a request tied to a task
func CreateHold(units int, queue QueueClass, role Role, tid TaskID, servTime, arrTime float64) *Hold {
	return &Hold{Units: units, Queue: queue, Role: role, Task: tid, ServTime: servTime, ArrTime: arrTime}
}

// CreateTentativeHold is a constructor for one leg of a race whose role is
// decided after the race resolves.  It holds units like a real request but
// leaves no ledger entry or sojourn record until Settle names its role.
func CreateTentativeHold(units int, queue QueueClass, tid TaskID, servTime, arrTime float64) *Hold {
	hold := CreateHold(units, queue, Untracked, tid, servTime, arrTime)
	hold.tentative = true
	return hold
}

// InService reports whether the hold currently owns units
func (hold *Hold) InService() bool {
	return hold.inService
}

// Waited is how long the hold spent in a wait queue
func (hold *Hold) Waited() float64 {
	return hold.AdmitTime - hold.RequestTime
}

// holdList is a wait queue or the service list, with its statistics
type holdList struct {
	records []*Hold
	size    *Accumulate
	sojourn *Tally
}

func createHoldList(name string) *holdList {
	return &holdList{records: make([]*Hold, 0), size: CreateAccumulate(name + " size"),
		sojourn: CreateTally(name + " sojourn")}
}

func (hl *holdList) len() int {
	return len(hl.records)
}

func (hl *holdList) pushBack(hold *Hold) {
	hl.records = append(hl.records, hold)
}

func (hl *holdList) pushFront(hold *Hold) {
	hl.records = append([]*Hold{hold}, hl.records...)
}

func (hl *holdList) front() *Hold {
	return hl.records[0]
}

func (hl *holdList) popFront() *Hold {
	hold := hl.records[0]
	hl.records[0] = nil
	hl.records = hl.records[1:]
	return hold
}

func (hl *holdList) remove(hold *Hold) bool {
	for idx, rec := range hl.records {
		if rec == hold {
			hl.records = append(hl.records[:idx], hl.records[idx+1:]...)
			return true
		}
	}
	return false
}

func (hl *holdList) clear() {
	hl.records = hl.records[:0]
}

func (hl *holdList) initStat(now float64) {
	hl.size.Init(now)
	hl.size.Update(now, float64(len(hl.records)))
	hl.sojourn.Init()
}

// Resource models the service units of one node
type Resource struct {
	Name       string
	capacity   int
	available  int
	held       int
	discipline Discipline
	alpha      float64
	localRun   int
	local      *holdList
	remote     *holdList
	service    *holdList
	ledger     *Ledger
	waitTime   float64

	stats        bool
	initStatTime float64
	statUtil     *Accumulate
	statCapacity *Accumulate
	statSojourn  *Tally
}

// CreateResource is a constructor.  The resource starts FIFO with alpha 1.
func CreateResource(name string, capacity int) (*Resource, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("resource %s: %w", name, ErrNegativeCapacity)
	}
	rs := new(Resource)
	rs.Name = name
	rs.capacity = capacity
	rs.available = capacity
	rs.discipline = FIFO
	rs.alpha = 1.0
	rs.local = createHoldList(name + " local queue")
	rs.remote = createHoldList(name + " remote queue")
	rs.service = createHoldList(name + " service")
	rs.ledger = CreateLedger(name)
	return rs, nil
}

func (rs *Resource) Capacity() int {
	return rs.capacity
}

func (rs *Resource) Available() int {
	return rs.available
}

// Held is the number of units owned by holds in service
func (rs *Resource) Held() int {
	return rs.held
}

func (rs *Resource) Faulted() bool {
	return rs.capacity == 0
}

func (rs *Resource) LocalQueueLen() int {
	return rs.local.len()
}

func (rs *Resource) RemoteQueueLen() int {
	return rs.remote.len()
}

func (rs *Resource) ServiceLen() int {
	return rs.service.len()
}

// WaitingTime estimates the work ahead of a newly queued request: the service
// time of every request that had to queue and has not yet completed
func (rs *Resource) WaitingTime() float64 {
	return rs.waitTime
}

func (rs *Resource) Ledger() *Ledger {
	return rs.ledger
}

func (rs *Resource) Discipline() Discipline {
	return rs.discipline
}

func (rs *Resource) SetDiscipline(dsc Discipline) {
	rs.discipline = dsc
}

func (rs *Resource) Alpha() float64 {
	return rs.alpha
}

// SetAlpha sets the local/remote admission mixing parameter
func (rs *Resource) SetAlpha(alpha float64) error {
	if !(alpha > 0.0 && alpha <= 1.0) {
		return fmt.Errorf("resource %s, alpha %g: %w", rs.Name, alpha, ErrBadAlpha)
	}
	rs.alpha = alpha
	return nil
}

// localRunLength is the number of local admissions taken for every remote
// admission while both queues hold requests
func (rs *Resource) localRunLength() int {
	return int(math.Floor((1.0 - rs.alpha) / rs.alpha))
}

// Init empties the queues and the service list and makes every unit available
func (rs *Resource) Init(eng *Engine) {
	rs.local.clear()
	rs.remote.clear()
	rs.service.clear()
	rs.held = 0
	rs.available = rs.capacity
	rs.localRun = 0
	rs.waitTime = 0.0
	rs.ledger = CreateLedger(rs.Name)
	if rs.stats {
		rs.resetStat(eng.Now())
	}
}

// SetStatCollecting turns statistics collection on or off.  Turning it on
// twice, or off when it is not on, is an error.
func (rs *Resource) SetStatCollecting(eng *Engine, on bool) error {
	if on {
		if rs.stats {
			return fmt.Errorf("resource %s: %w", rs.Name, ErrStatsAlreadyOn)
		}
		rs.stats = true
		if rs.statUtil == nil {
			rs.statUtil = CreateAccumulate(rs.Name + " utilization")
			rs.statCapacity = CreateAccumulate(rs.Name + " capacity")
			rs.statSojourn = CreateTally(rs.Name + " sojourn")
		}
		rs.resetStat(eng.Now())
		return nil
	}
	if !rs.stats {
		return fmt.Errorf("resource %s: %w", rs.Name, ErrStatsOff)
	}
	rs.stats = false
	return nil
}

// InitStat restarts every statistic at the current time
func (rs *Resource) InitStat(eng *Engine) error {
	if !rs.stats {
		return fmt.Errorf("resource %s: %w", rs.Name, ErrStatsOff)
	}
	rs.resetStat(eng.Now())
	return nil
}

func (rs *Resource) resetStat(now float64) {
	rs.initStatTime = now
	rs.statUtil.Init(now)
	rs.statUtil.Update(now, float64(rs.capacity-rs.available))
	rs.statCapacity.Init(now)
	rs.statCapacity.Update(now, float64(rs.capacity))
	rs.statSojourn.Init()
	rs.local.initStat(now)
	rs.remote.initStat(now)
	rs.service.initStat(now)
}

// StatOnUtil is the time-weighted number of busy units
func (rs *Resource) StatOnUtil() (*Accumulate, error) {
	if rs.statUtil == nil {
		return nil, fmt.Errorf("resource %s: %w", rs.Name, ErrStatsOff)
	}
	return rs.statUtil, nil
}

// StatOnCapacity is the time-weighted capacity
func (rs *Resource) StatOnCapacity() (*Accumulate, error) {
	if rs.statCapacity == nil {
		return nil, fmt.Errorf("resource %s: %w", rs.Name, ErrStatsOff)
	}
	return rs.statCapacity, nil
}

// StatOnSojourn holds the time from request to release of every completed hold
func (rs *Resource) StatOnSojourn() (*Tally, error) {
	if rs.statSojourn == nil {
		return nil, fmt.Errorf("resource %s: %w", rs.Name, ErrStatsOff)
	}
	return rs.statSojourn, nil
}

// QueueStats returns the wait tally and the size accumulate of a wait queue
func (rs *Resource) QueueStats(qc QueueClass) (*Tally, *Accumulate, error) {
	if rs.statUtil == nil {
		return nil, nil, fmt.Errorf("resource %s: %w", rs.Name, ErrStatsOff)
	}
	list := rs.queueOf(qc)
	return list.sojourn, list.size, nil
}

// ServiceStats returns the service-time tally and the size accumulate of the service list
func (rs *Resource) ServiceStats() (*Tally, *Accumulate, error) {
	if rs.statUtil == nil {
		return nil, nil, fmt.Errorf("resource %s: %w", rs.Name, ErrStatsOff)
	}
	return rs.service.sojourn, rs.service.size, nil
}

func (rs *Resource) queueOf(qc QueueClass) *holdList {
	switch qc {
	case LocalQueue:
		return rs.local
	case RemoteQueue:
		return rs.remote
	}
	panic(fmt.Errorf("unknown queue class %d", qc))
}

// Request asks for hold.Units units.  A faulted resource (capacity 0) returns
// FaultPenalty and false, and grant is never called.  Otherwise the request is
// admitted now or queued, and grant runs at the virtual time of admission.
func (rs *Resource) Request(eng *Engine, hold *Hold, grant Grant) (float64, bool) {
	if rs.capacity == 0 {
		return FaultPenalty, false
	}
	if hold.Units <= 0 {
		eng.Fail(fmt.Errorf("resource %s, request of %d units: %w", rs.Name, hold.Units, ErrBadUnits))
		return 0.0, false
	}
	now := eng.Now()
	hold.RequestTime = now
	hold.grant = grant

	if hold.Units <= rs.available {
		rs.admit(eng, hold)
		return 0.0, true
	}

	list := rs.queueOf(hold.Queue)
	switch rs.discipline {
	case FIFO:
		list.pushBack(hold)
	case LIFO:
		list.pushFront(hold)
	default:
		panic(fmt.Errorf("policy must be FIFO or LIFO"))
	}
	hold.queued = true
	hold.enqueued = now
	rs.waitTime += hold.ServTime
	if rs.stats {
		list.size.Update(now, float64(list.len()))
	}
	return 0.0, true
}

// admit gives hold its units (a dummy is retired instead) and schedules its grant
func (rs *Resource) admit(eng *Engine, hold *Hold) {
	now := eng.Now()
	hold.AdmitTime = now
	if rs.stats {
		rs.queueOf(hold.Queue).sojourn.Add(now - hold.RequestTime)
	}

	offset := now + hold.ServTime - hold.ArrTime
	switch hold.Role {
	case Untracked, Real:
		rs.available -= hold.Units
		rs.held += hold.Units
		hold.inService = true
		rs.service.pushBack(hold)
		if hold.Role == Real {
			rs.ledger.Post(hold.Task, Real, offset)
		}
		if rs.stats {
			rs.statUtil.Update(now, float64(rs.capacity-rs.available))
			rs.service.size.Update(now, float64(rs.service.len()))
		}
	case Dummy:
		rs.ledger.Post(hold.Task, Dummy, offset)
		hold.retired = true
		if hold.queued {
			rs.shrinkWaitTime(hold.ServTime)
		}
	default:
		panic(fmt.Errorf("unknown role %d", hold.Role))
	}

	grant := hold.grant
	if grant != nil {
		eng.Schedule(0.0, func(eng *Engine) { grant(eng, hold) })
	}
}

// Release returns units of hold to the resource and admits waiting requests.
// Releasing more than the hold owns, or releasing a hold no longer in service, is an error.  On a faulted resource the
// units are dropped without statistics or admission, and FaultPenalty is returned.
func (rs *Resource) Release(eng *Engine, hold *Hold, units int) (float64, error) {
	if units <= 0 {
		return 0.0, fmt.Errorf("resource %s, release of %d units: %w", rs.Name, units, ErrBadUnits)
	}
	if !hold.inService {
		return 0.0, fmt.Errorf("resource %s, release for task %s: %w", rs.Name, hold.Task.String(), ErrNotHeld)
	}
	if units > hold.Units {
		return 0.0, fmt.Errorf("resource %s, release of %d units for task %s: %w", rs.Name, units,
			hold.Task.String(), ErrOverRelease)
	}
	now := eng.Now()
	faulted := rs.capacity == 0

	hold.Units -= units
	rs.held -= units
	if hold.Units == 0 {
		rs.service.remove(hold)
		hold.inService = false
		hold.released = true
		hold.ReleaseTime = now
		hold.lostFault = faulted
		if hold.queued {
			rs.shrinkWaitTime(hold.ServTime)
		}
		if rs.stats && !faulted {
			if !hold.tentative {
				rs.recordSojourn(hold)
			}
			rs.service.size.Update(now, float64(rs.service.len()))
		}
	}
	rs.settleAvailable()

	if faulted {
		return FaultPenalty, nil
	}
	if rs.stats {
		rs.statUtil.Update(now, float64(rs.capacity-rs.available))
	}
	rs.admitWaiting(eng)
	return 0.0, nil
}

func (rs *Resource) recordSojourn(hold *Hold) {
	rs.statSojourn.Add(hold.ReleaseTime - hold.RequestTime)
	rs.service.sojourn.Add(hold.ReleaseTime - hold.AdmitTime)
}

// Settle fixes the role of a released tentative hold.  The role's ledger slot
// gets the hold's completion offset.  A real hold also enters the sojourn
// statistics; a dummy is retired without them, so a raced task counts once.
func (rs *Resource) Settle(hold *Hold, role Role) error {
	if !hold.tentative || !hold.released || hold.settled {
		return fmt.Errorf("resource %s, settling task %s: %w", rs.Name, hold.Task.String(), ErrNotSettleable)
	}
	if role != Real && role != Dummy {
		return fmt.Errorf("resource %s, settling task %s as %s: %w", rs.Name, hold.Task.String(),
			RoleToStr(role), ErrNotSettleable)
	}
	hold.settled = true
	hold.Role = role
	rs.ledger.Post(hold.Task, role, hold.AdmitTime+hold.ServTime-hold.ArrTime)
	if role == Real && rs.stats && !hold.lostFault {
		rs.recordSojourn(hold)
	}
	return nil
}

func (rs *Resource) shrinkWaitTime(servTime float64) {
	rs.waitTime = math.Max(0.0, rs.waitTime-servTime)
}

// settleAvailable keeps 0 <= available <= capacity whatever the held units
func (rs *Resource) settleAvailable() {
	avail := rs.capacity - rs.held
	if avail < 0 {
		avail = 0
	}
	rs.available = avail
}

// admitWaiting pulls requests from the wait queues while units are available.
// With both queues non-empty a run of localRunLength() local admissions is
// followed by one remote admission; with one queue non-empty that queue drains.
func (rs *Resource) admitWaiting(eng *Engine) {
	run := rs.localRunLength()
	for rs.available > 0 {
		var list *holdList
		hasLocal, hasRemote := rs.local.len() > 0, rs.remote.len() > 0
		switch {
		case hasLocal && hasRemote:
			if rs.localRun < run {
				list = rs.local
			} else {
				list = rs.remote
			}
		case hasLocal:
			list = rs.local
		case hasRemote:
			list = rs.remote
		default:
			return
		}

		head := list.front()
		if head.Role != Dummy && head.Units > rs.available {
			return
		}
		list.popFront()
		if list == rs.local {
			rs.localRun += 1
		} else {
			rs.localRun = 0
		}
		if rs.stats {
			list.size.Update(eng.Now(), float64(list.len()))
		}
		rs.admit(eng, head)
	}
}

// ChangeCapacity adds diff units of capacity (diff may be negative).  Capacity
// never drops below zero.  Units held beyond a reduced capacity stay in service
// until released, with available held at zero meanwhile.
func (rs *Resource) ChangeCapacity(eng *Engine, diff int) error {
	if rs.capacity+diff < 0 {
		return fmt.Errorf("resource %s, capacity %d%+d: %w", rs.Name, rs.capacity, diff, ErrNegativeCapacity)
	}
	rs.capacity += diff
	rs.settleAvailable()
	if rs.stats {
		now := eng.Now()
		rs.statCapacity.Update(now, float64(rs.capacity))
		rs.statUtil.Update(now, float64(rs.capacity-rs.available))
	}
	if diff > 0 {
		rs.admitWaiting(eng)
	}
	return nil
}

// SetCapacity sets the capacity to newcap
func (rs *Resource) SetCapacity(eng *Engine, newcap int) error {
	if newcap < 0 {
		return fmt.Errorf("resource %s, capacity %d: %w", rs.Name, newcap, ErrNegativeCapacity)
	}
	return rs.ChangeCapacity(eng, newcap-rs.capacity)
}

// ResourceSummary is the report form of a Resource's statistics
type ResourceSummary struct {
	From           float64       `json:"from" yaml:"from"`
	To             float64       `json:"to" yaml:"to"`
	Capacity       float64       `json:"capacity" yaml:"capacity"`
	Utilization    float64       `json:"utilization" yaml:"utilization"`
	MaxBusy        float64       `json:"maxbusy" yaml:"maxbusy"`
	LocalQueue     float64       `json:"localqueue" yaml:"localqueue"`
	RemoteQueue    float64       `json:"remotequeue" yaml:"remotequeue"`
	LocalWait      Summary       `json:"localwait" yaml:"localwait"`
	RemoteWait     Summary       `json:"remotewait" yaml:"remotewait"`
	Service        Summary       `json:"service" yaml:"service"`
	Sojourn        Summary       `json:"sojourn" yaml:"sojourn"`
	Ledger         LedgerSummary `json:"ledger" yaml:"ledger"`
	WaitingAtEnd   int           `json:"waitingatend" yaml:"waitingatend"`
	InServiceAtEnd int           `json:"inserviceatend" yaml:"inserviceatend"`
}

// Summarize condenses the statistics collected since the last InitStat, up to
// the time of the engine's most recent action
func (rs *Resource) Summarize(eng *Engine) (ResourceSummary, error) {
	if rs.statUtil == nil {
		return ResourceSummary{}, fmt.Errorf("asking a report for resource %s: %w", rs.Name, ErrStatsOff)
	}
	now := math.Max(eng.LastTime(), rs.initStatTime)
	rsum := ResourceSummary{From: rs.initStatTime, To: now}
	rsum.Capacity = rs.statCapacity.Average(now)
	rsum.Utilization = rs.statUtil.Average(now)
	rsum.MaxBusy = rs.statUtil.Max()
	rsum.LocalQueue = rs.local.size.Average(now)
	rsum.RemoteQueue = rs.remote.size.Average(now)
	rsum.LocalWait = rs.local.sojourn.Summarize()
	rsum.RemoteWait = rs.remote.sojourn.Summarize()
	rsum.Service = rs.service.sojourn.Summarize()
	rsum.Sojourn = rs.statSojourn.Summarize()
	rsum.Ledger = rs.ledger.Summarize()
	rsum.WaitingAtEnd = rs.local.len() + rs.remote.len()
	rsum.InServiceAtEnd = rs.service.len()
	return rsum, nil
}
