package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ArrivalSampler generates inter-arrival times, in seconds, for the
// mice injector's background flow source. Always returns a strictly
// positive value.
type ArrivalSampler interface {
	SampleIAT(rng *rand.Rand) float64
}

// PoissonSampler produces exponentially-distributed inter-arrivals
// (CV=1), the default background-traffic process.
type PoissonSampler struct {
	rate float64 // flows per second
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) float64 {
	iat := rng.ExpFloat64() / s.rate
	if iat <= 0 {
		return 1e-9
	}
	return iat
}

// GammaSampler produces Gamma-distributed inter-arrivals. CV > 1
// yields burstier traffic than Poisson; CV < 1 yields steadier.
type GammaSampler struct {
	shape float64
	scale float64
}

func (s *GammaSampler) SampleIAT(rng *rand.Rand) float64 {
	iat := gammaRand(rng, s.shape, s.scale)
	if iat <= 0 {
		return 1e-9
	}
	return iat
}

// gammaRand samples Gamma(shape, scale) via Marsaglia-Tsang for
// shape >= 1. For shape < 1 it samples Gamma(shape+1, scale) and
// multiplies by U^(1/shape), U uniform in [0,1).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// WeibullSampler produces Weibull-distributed inter-arrivals.
type WeibullSampler struct {
	shape float64
	scale float64
}

func (s *WeibullSampler) SampleIAT(rng *rand.Rand) float64 {
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	return s.scale * math.Pow(-math.Log(u), 1.0/s.shape)
}

// NewArrivalSampler builds a sampler for the named process at the
// given mean rate (flows/second). cv is ignored for "poisson".
func NewArrivalSampler(process string, rate, cv float64) (ArrivalSampler, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("workload: arrival rate must be positive, got %g", rate)
	}
	if cv <= 0 {
		cv = 1.0
	}

	switch process {
	case "poisson", "":
		return &PoissonSampler{rate: rate}, nil

	case "gamma":
		shape := 1.0 / (cv * cv)
		mean := 1.0 / rate
		scale := mean * cv * cv
		if shape < 0.01 {
			logrus.Warnf("workload: gamma shape %.4f (CV=%.1f) too small, falling back to poisson", shape, cv)
			return &PoissonSampler{rate: rate}, nil
		}
		return &GammaSampler{shape: shape, scale: scale}, nil

	case "weibull":
		mean := 1.0 / rate
		k := weibullShapeFromCV(cv)
		scale := mean / math.Gamma(1.0+1.0/k)
		return &WeibullSampler{shape: k, scale: scale}, nil

	default:
		return nil, fmt.Errorf("workload: unknown arrival process %q", process)
	}
}

// weibullShapeFromCV finds k such that CV(k) matches targetCV by
// bisection over k in [0.1, 100], since CV is monotonically
// decreasing in k and has no closed-form inverse.
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("workload: weibullShapeFromCV did not converge for CV=%.3f, using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}
