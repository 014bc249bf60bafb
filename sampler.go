package fogsim

import (
	"fmt"
	"math"

	"github.com/iti/rngstream"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomSource produces uniform draws on (0,1).  *rngstream.RngStream satisfies it,
// and tests substitute scripted sources so that draws are reproducible.
type RandomSource interface {
	RandU01() float64
}

// CreateRandomSource returns a new rngstream stream.  Streams are independent
// and reproducible by creation order.
func CreateRandomSource(name string) RandomSource {
	return rngstream.New(name)
}

// randIndex draws an index uniformly from [0,n)
func randIndex(rng RandomSource, n int) int {
	idx := int(rng.RandU01() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Sampler produces service times
type Sampler interface {
	NextDouble() float64
}

// WeibullSampler draws from a shifted Weibull distribution with
// F(x) = 1 - exp(-(rate*(x-shift))^shape), by inverse transform.
type WeibullSampler struct {
	dist  distuv.Weibull
	shift float64
	rng   RandomSource
}

// CreateWeibullSampler is a constructor.  rate is the inverse of the scale.
func CreateWeibullSampler(shape, rate, shift float64, rng RandomSource) *WeibullSampler {
	ws := new(WeibullSampler)
	ws.dist = distuv.Weibull{K: shape, Lambda: 1.0 / rate}
	ws.shift = shift
	ws.rng = rng
	return ws
}

// NextDouble returns the next service time
func (ws *WeibullSampler) NextDouble() float64 {
	return ws.shift + ws.dist.Quantile(ws.rng.RandU01())
}

// ExponentialSampler draws exponentially distributed service times
type ExponentialSampler struct {
	dist distuv.Exponential
	rng  RandomSource
}

// CreateExponentialSampler is a constructor
func CreateExponentialSampler(mean float64, rng RandomSource) *ExponentialSampler {
	return &ExponentialSampler{dist: distuv.Exponential{Rate: 1.0 / mean}, rng: rng}
}

func (es *ExponentialSampler) NextDouble() float64 {
	return es.dist.Quantile(es.rng.RandU01())
}

// ConstantSampler always returns the same service time
type ConstantSampler float64

func (cs ConstantSampler) NextDouble() float64 {
	return float64(cs)
}

// CreateSampler builds the service-time sampler a ServiceCfg describes
func CreateSampler(sc ServiceCfg, rng RandomSource) (Sampler, error) {
	switch sc.Dist {
	case "weibull", "":
		if sc.Shape <= 0 || sc.Rate <= 0 {
			return nil, fmt.Errorf("weibull service needs positive shape and rate, got %g and %g", sc.Shape, sc.Rate)
		}
		return CreateWeibullSampler(sc.Shape, sc.Rate, sc.Shift, rng), nil
	case "exponential":
		if sc.Mean <= 0 || math.IsInf(sc.Mean, 0) {
			return nil, fmt.Errorf("exponential service needs a positive mean, got %g", sc.Mean)
		}
		return CreateExponentialSampler(sc.Mean, rng), nil
	case "constant":
		if sc.Mean < 0 {
			return nil, fmt.Errorf("constant service time cannot be negative, got %g", sc.Mean)
		}
		return ConstantSampler(sc.Mean), nil
	}
	return nil, fmt.Errorf("unknown service distribution %q", sc.Dist)
}
