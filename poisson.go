package philox

import (
	"fmt"
	"math"
)

// poissonSmallLambda is the switch point between multiplication and
// transformed rejection.
const poissonSmallLambda = 10

// wordSource yields raw stream words one at a time.
type wordSource interface {
	Uint32() uint32
}

// poissonSampler draws Poisson variates from a scalar word stream.
// Small means use Knuth's multiplication method; larger ones use
// Hörmann's PTRS transformed rejection.
type poissonSampler struct {
	lambda float64
	expNeg float64

	// PTRS constants
	slam, loglam float64
	b, a         float64
	invAlpha, vr float64
}

func newPoissonSampler(lambda float64) (*poissonSampler, error) {
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return nil, fmt.Errorf("poisson lambda must be positive and finite, got %v", lambda)
	}
	p := &poissonSampler{lambda: lambda}
	if lambda < poissonSmallLambda {
		p.expNeg = math.Exp(-lambda)
		return p, nil
	}
	p.slam = math.Sqrt(lambda)
	p.loglam = math.Log(lambda)
	p.b = 0.931 + 2.53*p.slam
	p.a = -0.059 + 0.02483*p.b
	p.invAlpha = 1.1239 + 1.1328/(p.b-3.4)
	p.vr = 0.9277 - 3.6224/(p.b-2)
	return p, nil
}

func (p *poissonSampler) sample(src wordSource) uint32 {
	if p.lambda < poissonSmallLambda {
		return p.multiplication(src)
	}
	return p.ptrs(src)
}

func (p *poissonSampler) multiplication(src wordSource) uint32 {
	var k uint32
	prod := 1.0
	for {
		prod *= uniformDouble(src.Uint32())
		if prod <= p.expNeg {
			return k
		}
		k++
	}
}

func (p *poissonSampler) ptrs(src wordSource) uint32 {
	for {
		u := uniformDouble(src.Uint32()) - 0.5
		v := uniformDouble(src.Uint32())
		us := 0.5 - math.Abs(u)
		k := math.Floor((2*p.a/us+p.b)*u + p.lambda + 0.43)

		if us >= 0.07 && v <= p.vr {
			return clampCount(k)
		}
		if k < 0 || (us < 0.013 && v > us) {
			continue
		}
		lg, _ := math.Lgamma(k + 1)
		if math.Log(v)+math.Log(p.invAlpha)-math.Log(p.a/(us*us)+p.b) <= -p.lambda+k*p.loglam-lg {
			return clampCount(k)
		}
	}
}

func clampCount(k float64) uint32 {
	if k >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(k)
}
