package fogsim

// process.go holds the applications that generate tasks.  An application is a
// loop written as continuations: issue a task, hand it to the policy, and when
// the policy reports its outcome, record it and issue the next one.  Nothing
// blocks; the engine resumes the loop at the virtual time the outcome is known.

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Task is one request for service issued by an application
type Task struct {
	ID       TaskID
	App      *Application
	Home     *Node
	Index    int // position among all tasks of the run
	AppIndex int // tasks the application completed before this one
	ServTime float64
	ArrTime  float64
	Probes   int
	Legs     []Leg // round trips measured, in the order they returned
}

// Leg is the round trip one probe of a task measured
type Leg struct {
	NodeID  int     `json:"nodeid" yaml:"nodeid"`
	Latency float64 `json:"latency" yaml:"latency"`
}

func (task *Task) Device() *Device {
	return task.App.Dev
}

// PastWarmup reports whether the task's outcome enters the statistics
func (task *Task) PastWarmup() bool {
	return task.AppIndex > task.App.warmup
}

// Application generates tasks for one device
type Application struct {
	ID        int
	Name      string
	Dev       *Device
	Offset    float64
	sampler   Sampler
	quota     int
	warmup    int
	issued    int
	completed int
	responses *Tally
	tiers     map[Tier]*Tally
}

// CreateApplication is a constructor
func CreateApplication(id int, dev *Device, offset float64, sampler Sampler, quota, warmup int) *Application {
	app := &Application{ID: id, Dev: dev, Offset: offset, sampler: sampler, quota: quota, warmup: warmup}
	app.Name = fmt.Sprintf("app-%d-dev-%d", id, dev.ID)
	app.responses = CreateTally(app.Name + " response")
	app.tiers = make(map[Tier]*Tally)
	for _, tier := range Tiers {
		app.tiers[tier] = CreateTally(app.Name + " " + TierToStr(tier) + " response")
	}
	return app
}

func (app *Application) Completed() int {
	return app.completed
}

func (app *Application) Finished() bool {
	return app.completed >= app.quota
}

// Responses is the tally of the application's recorded response times
func (app *Application) Responses() *Tally {
	return app.responses
}

func (app *Application) TierResponses(tier Tier) *Tally {
	return app.tiers[tier]
}

// newTask draws a service time and stamps a task with the current time
func (app *Application) newTask(eng *Engine, home *Node, index int) *Task {
	task := &Task{ID: app.Dev.NextTaskID(), App: app, Home: home, Index: index, AppIndex: app.completed}
	task.ServTime = app.sampler.NextDouble()
	task.ArrTime = eng.Now()
	app.issued += 1
	return task
}

// appOffset staggers application start times: application idx starts in
// slot idx mod slots, the slots spacing seconds apart
func appOffset(idx, slots int, spacing float64) float64 {
	return spacing * float64(idx%slots)
}

// Observer is told about every outcome recorded past warm-up
type Observer interface {
	Record(eng *Engine, out Outcome)
}

// Workload drives every application of a run
type Workload struct {
	topo      *Topology
	policy    Policy
	fault     *FaultWindow
	apps      []*Application
	observers []Observer
	logger    hclog.Logger
	issued    int
	active    int
}

// CreateWorkload is a constructor
func CreateWorkload(topo *Topology, policy Policy, fault *FaultWindow, logger hclog.Logger) *Workload {
	return &Workload{topo: topo, policy: policy, fault: fault, apps: make([]*Application, 0),
		observers: make([]Observer, 0), logger: logger}
}

// AddApplication appends app to the workload
func (wl *Workload) AddApplication(app *Application) {
	wl.apps = append(wl.apps, app)
}

// AddObserver registers obs for every recorded outcome
func (wl *Workload) AddObserver(obs Observer) {
	wl.observers = append(wl.observers, obs)
}

func (wl *Workload) Applications() []*Application {
	return wl.apps
}

// Issued is the number of tasks issued so far across the run
func (wl *Workload) Issued() int {
	return wl.issued
}

// Start schedules every application at its offset
func (wl *Workload) Start(eng *Engine) {
	wl.active = len(wl.apps)
	for _, app := range wl.apps {
		thisApp := app
		eng.Schedule(app.Offset, func(eng *Engine) { wl.next(eng, thisApp) })
	}
}

// next issues the application's next task, or retires the application when
// its quota is met.  The engine stops once the last application retires.
func (wl *Workload) next(eng *Engine, app *Application) {
	if app.Finished() {
		wl.active -= 1
		if wl.active == 0 {
			wl.logger.Debug("all applications finished", "time", eng.Now(), "tasks", wl.issued)
			eng.Stop()
		}
		return
	}

	home := wl.topo.HomeNode(app.Dev)
	task := app.newTask(eng, home, wl.issued)
	wl.issued += 1
	if wl.fault != nil {
		if err := wl.fault.Observe(eng, task.Index); err != nil {
			eng.Fail(err)
			return
		}
	}

	wl.policy.Dispatch(eng, task, func(eng *Engine, out Outcome) {
		wl.record(eng, out)
		app.completed += 1
		wl.next(eng, app)
	})
}

func (wl *Workload) record(eng *Engine, out Outcome) {
	task := out.Task
	if wl.logger.IsTrace() {
		wl.logger.Trace("task resolved", "task", task.ID.String(), "tier", TierToStr(out.Tier),
			"node", out.Node.Name, "response", out.Response, "probes", task.Probes)
	}
	if !task.PastWarmup() {
		return
	}
	task.App.responses.Add(out.Response)
	task.App.tiers[out.Tier].Add(out.Response)
	for _, obs := range wl.observers {
		obs.Record(eng, out)
	}
}
