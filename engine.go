package fogsim

// engine.go wraps the evt event manager with the guarantees the simulator
// needs from its clock: actions scheduled for the same virtual instant run in
// the order they were submitted, a stop signal discards whatever is still
// pending, and the first fatal error raised inside an event is kept so the run
// can report it.

import (
	"math"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// Action is a continuation run by the Engine at a virtual time
type Action func(eng *Engine)

// bucket holds the actions due at one absolute tick, in submission order
type bucket struct {
	ticks   int64
	actions []Action
}

// Engine owns the virtual clock of a run
type Engine struct {
	EvtMgr     *evtm.EventManager
	buckets    map[int64]*bucket
	stopped    bool
	running    bool
	limitTicks int64
	last       float64
	err        error
	fired      int
}

// MaxRunSeconds is the longest time limit the tick clock represents, with
// headroom left for the offsets of events scheduled near the limit
func MaxRunSeconds() float64 {
	return float64(math.MaxInt64/2) / vrtime.FloatTicksPerSecond
}

// CreateEngine is a constructor
func CreateEngine() *Engine {
	eng := new(Engine)
	eng.EvtMgr = evtm.New()
	eng.buckets = make(map[int64]*bucket)
	return eng
}

// Now returns the current virtual time in seconds
func (eng *Engine) Now() float64 {
	return eng.EvtMgr.CurrentSeconds()
}

// Schedule arranges for act to run delay seconds from now.  Actions that land
// on the same tick share one evt event and run in the order they were scheduled.
func (eng *Engine) Schedule(delay float64, act Action) {
	if eng.stopped {
		return
	}
	if delay < 0 {
		delay = 0
	}
	offset := vrtime.SecondsToTime(delay)
	key := eng.EvtMgr.CurrentTime().Ticks() + offset.Ticks()

	bkt, present := eng.buckets[key]
	if present {
		bkt.actions = append(bkt.actions, act)
		return
	}
	bkt = &bucket{ticks: key, actions: []Action{act}}
	eng.buckets[key] = bkt
	eng.EvtMgr.Schedule(eng, bkt, drainBucket, offset)
}

// drainBucket is the evt handler for every bucket.  Actions appended while the
// bucket drains (zero-delay follow-ons) run in the same pass.
func drainBucket(evtMgr *evtm.EventManager, context any, data any) any {
	eng := context.(*Engine)
	bkt := data.(*bucket)
	eng.last = eng.Now()

	for idx := 0; idx < len(bkt.actions); idx++ {
		if eng.stopped {
			break
		}
		eng.fired += 1
		bkt.actions[idx](eng)
	}
	delete(eng.buckets, bkt.ticks)
	return nil
}

// Stop halts the run; actions still pending are discarded and the clock
// stays at the time of the action that called Stop
func (eng *Engine) Stop() {
	if eng.stopped {
		return
	}
	eng.stopped = true
	if eng.running && eng.EvtMgr.CurrentTicks() < eng.limitTicks {
		// evt leaves its loop on a stop only while some event is still queued
		eng.EvtMgr.Schedule(eng, nil, idle, vrtime.SecondsToTime(0.0))
		eng.EvtMgr.Stop()
	}
}

func idle(evtMgr *evtm.EventManager, context any, data any) any {
	return nil
}

// Stopped reports whether Stop or Fail has been called
func (eng *Engine) Stopped() bool {
	return eng.stopped
}

// Fail records err (the first one wins) and stops the run
func (eng *Engine) Fail(err error) {
	if err == nil {
		return
	}
	if eng.err == nil {
		eng.err = err
	}
	eng.Stop()
}

// Err returns the fatal error recorded by Fail, if any
func (eng *Engine) Err() error {
	return eng.err
}

// LastTime is the virtual time of the most recent action.  Once Run returns it
// marks the end of the run, where Now may have been moved on to the limit.
func (eng *Engine) LastTime() float64 {
	return eng.last
}

// Fired returns the number of actions executed so far
func (eng *Engine) Fired() int {
	return eng.fired
}

// Run executes events until none remain, the engine is stopped, or virtual
// time passes limit seconds.  A limit beyond MaxRunSeconds is cut down to it.
// The recorded fatal error, if any, is returned.
func (eng *Engine) Run(limit float64) error {
	limit = math.Min(limit, MaxRunSeconds())
	eng.limitTicks = vrtime.SecondsToTicks(limit)
	eng.running = true
	eng.EvtMgr.Run(limit)
	eng.running = false
	return eng.err
}
