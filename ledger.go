package fogsim

import (
	"fmt"
)

// TaskID identifies a task request: the device that issued it and the
// device-local sequence number
type TaskID struct {
	Device int `json:"device" yaml:"device"`
	Seq    int `json:"seq" yaml:"seq"`
}

func (tid TaskID) String() string {
	return fmt.Sprintf("%d.%d", tid.Device, tid.Seq)
}

// Role marks the part a request plays in a hedged dispatch.  It is used for
// bookkeeping only, never to order admissions.
type Role int

const (
	Untracked Role = iota
	Real
	Dummy
)

var roleToStr = map[Role]string{Untracked: "untracked", Real: "real", Dummy: "dummy"}

// RoleToStr returns the text name of a role
func RoleToStr(role Role) string {
	str, present := roleToStr[role]
	if !present {
		panic(fmt.Errorf("unknown role %d", role))
	}
	return str
}

// QueueClass selects which wait queue a request joins when it cannot be admitted
type QueueClass int

const (
	LocalQueue QueueClass = iota
	RemoteQueue
)

// QueueClassToStr returns the text name of a queue class
func QueueClassToStr(qc QueueClass) string {
	switch qc {
	case LocalQueue:
		return "local"
	case RemoteQueue:
		return "remote"
	}
	panic(fmt.Errorf("unknown queue class %d", qc))
}

// LedgerEntry holds the completion offsets posted for one task.  Each slot is
// written at most once before the entry is taken.
type LedgerEntry struct {
	Real     float64 `json:"real" yaml:"real"`
	Dummy    float64 `json:"dummy" yaml:"dummy"`
	HasReal  bool    `json:"hasreal" yaml:"hasreal"`
	HasDummy bool    `json:"hasdummy" yaml:"hasdummy"`
}

// Ledger reconciles the real and dummy halves of hedged requests on one resource
type Ledger struct {
	entries map[TaskID]*LedgerEntry
	posted  int
	reals   *Tally
	dummies *Tally
}

// CreateLedger is a constructor
func CreateLedger(name string) *Ledger {
	lg := new(Ledger)
	lg.entries = make(map[TaskID]*LedgerEntry)
	lg.reals = CreateTally(name + " real offsets")
	lg.dummies = CreateTally(name + " dummy offsets")
	return lg
}

// Post writes offset into the slot for role, unless that slot is already set.
// The return value tells whether the slot was written.
func (lg *Ledger) Post(tid TaskID, role Role, offset float64) bool {
	if role == Untracked {
		return false
	}
	entry, present := lg.entries[tid]
	if !present {
		entry = new(LedgerEntry)
		lg.entries[tid] = entry
	}
	switch role {
	case Real:
		if entry.HasReal {
			return false
		}
		entry.Real = offset
		entry.HasReal = true
		lg.reals.Add(offset)
	case Dummy:
		if entry.HasDummy {
			return false
		}
		entry.Dummy = offset
		entry.HasDummy = true
		lg.dummies.Add(offset)
	default:
		panic(fmt.Errorf("unknown role %d", role))
	}
	lg.posted += 1
	return true
}

// Peek returns the entry for tid without consuming it
func (lg *Ledger) Peek(tid TaskID) (LedgerEntry, bool) {
	entry, present := lg.entries[tid]
	if !present {
		return LedgerEntry{}, false
	}
	return *entry, true
}

// Take returns the offset posted in the slot for role and clears that slot.
// The entry is dropped once neither slot is set.
func (lg *Ledger) Take(tid TaskID, role Role) (float64, bool) {
	entry, present := lg.entries[tid]
	if !present {
		return 0.0, false
	}
	var offset float64
	switch role {
	case Real:
		if !entry.HasReal {
			return 0.0, false
		}
		offset = entry.Real
		entry.Real, entry.HasReal = 0.0, false
	case Dummy:
		if !entry.HasDummy {
			return 0.0, false
		}
		offset = entry.Dummy
		entry.Dummy, entry.HasDummy = 0.0, false
	default:
		return 0.0, false
	}
	if !entry.HasReal && !entry.HasDummy {
		delete(lg.entries, tid)
	}
	return offset, true
}

// Outstanding is the number of entries not yet taken
func (lg *Ledger) Outstanding() int {
	return len(lg.entries)
}

// LedgerSummary is the report form of a ledger
type LedgerSummary struct {
	Posted      int     `json:"posted" yaml:"posted"`
	Outstanding int     `json:"outstanding" yaml:"outstanding"`
	RealMean    float64 `json:"realmean" yaml:"realmean"`
	DummyMean   float64 `json:"dummymean" yaml:"dummymean"`
}

// Summarize reports how many slots were posted and the mean offsets per role
func (lg *Ledger) Summarize() LedgerSummary {
	return LedgerSummary{Posted: lg.posted, Outstanding: len(lg.entries),
		RealMean: lg.reals.Average(), DummyMean: lg.dummies.Average()}
}
