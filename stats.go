package fogsim

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Accumulate integrates a piecewise-constant quantity over virtual time, e.g.
// the number of busy units of a resource or the length of a queue.
type Accumulate struct {
	Name      string
	initTime  float64
	lastTime  float64
	lastValue float64
	area      float64
	min       float64
	max       float64
	updates   int
}

// CreateAccumulate is a constructor
func CreateAccumulate(name string) *Accumulate {
	acc := new(Accumulate)
	acc.Name = name
	acc.Init(0.0)
	return acc
}

// Init discards everything collected so far and restarts integration at time now
func (acc *Accumulate) Init(now float64) {
	acc.initTime = now
	acc.lastTime = now
	acc.lastValue = 0.0
	acc.area = 0.0
	acc.min = math.Inf(1)
	acc.max = math.Inf(-1)
	acc.updates = 0
}

// Update records that the quantity takes value x from time now onward
func (acc *Accumulate) Update(now, x float64) {
	if now > acc.lastTime {
		acc.area += acc.lastValue * (now - acc.lastTime)
		acc.lastTime = now
	}
	acc.lastValue = x
	acc.min = math.Min(acc.min, x)
	acc.max = math.Max(acc.max, x)
	acc.updates += 1
}

// Average returns the time-weighted mean over [init, now].  When no time has
// elapsed the last value is returned.
func (acc *Accumulate) Average(now float64) float64 {
	if acc.updates == 0 {
		return 0.0
	}
	span := now - acc.initTime
	if span <= 0 {
		return acc.lastValue
	}
	area := acc.area
	if now > acc.lastTime {
		area += acc.lastValue * (now - acc.lastTime)
	}
	return area / span
}

// Min returns the smallest value taken, or 0 before any update
func (acc *Accumulate) Min() float64 {
	if acc.updates == 0 {
		return 0.0
	}
	return acc.min
}

// Max returns the largest value taken, or 0 before any update
func (acc *Accumulate) Max() float64 {
	if acc.updates == 0 {
		return 0.0
	}
	return acc.max
}

// Last returns the current value
func (acc *Accumulate) Last() float64 {
	return acc.lastValue
}

// Tally collects individual observations
type Tally struct {
	Name    string
	samples []float64
}

// CreateTally is a constructor
func CreateTally(name string) *Tally {
	return &Tally{Name: name, samples: make([]float64, 0)}
}

// Init discards all observations
func (ty *Tally) Init() {
	ty.samples = ty.samples[:0]
}

// Add records one observation
func (ty *Tally) Add(x float64) {
	ty.samples = append(ty.samples, x)
}

// NumberObs is the number of observations
func (ty *Tally) NumberObs() int {
	return len(ty.samples)
}

// Average is the sample mean, 0 when empty
func (ty *Tally) Average() float64 {
	if len(ty.samples) == 0 {
		return 0.0
	}
	return stat.Mean(ty.samples, nil)
}

// StandardDeviation is the sample standard deviation, 0 with fewer than two observations
func (ty *Tally) StandardDeviation() float64 {
	if len(ty.samples) < 2 {
		return 0.0
	}
	return stat.StdDev(ty.samples, nil)
}

func (ty *Tally) Min() float64 {
	if len(ty.samples) == 0 {
		return 0.0
	}
	return floats.Min(ty.samples)
}

func (ty *Tally) Max() float64 {
	if len(ty.samples) == 0 {
		return 0.0
	}
	return floats.Max(ty.samples)
}

func (ty *Tally) Sum() float64 {
	return floats.Sum(ty.samples)
}

// Summary condenses a Tally for reports
type Summary struct {
	Obs    int     `json:"obs" yaml:"obs"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Summarize returns the Summary of the tally
func (ty *Tally) Summarize() Summary {
	return Summary{Obs: ty.NumberObs(), Mean: ty.Average(), StdDev: ty.StandardDeviation(),
		Min: ty.Min(), Max: ty.Max()}
}
