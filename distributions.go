package philox

import "math"

const (
	twoPow32Inv       = 1.0 / 4294967296.0
	twoPow64Inv       = 1.0 / 18446744073709551616.0
	twoPow32InvFloat  = float32(twoPow32Inv)
	twoPow32InvHalf   = float32(twoPow32Inv / 2)
	twoPow32InvDouble = twoPow32Inv
	twoPow64InvDouble = twoPow64Inv
)

// Distribution maps one raw block onto Width output values.
// Width must be 1, 2 or 4.
type Distribution[T any] interface {
	Width() int
	Apply(b Block, out []T)
}

// wordsPerValue is how many stream words one output value consumes.
func wordsPerValue(width int) uint64 {
	return uint64(4 / width)
}

// uniformFloat maps a word into (0, 1] at the centre of its 2^-32 bin.
func uniformFloat(v uint32) float32 {
	return float32(v)*twoPow32InvFloat + twoPow32InvHalf
}

// uniformDouble maps a word into (0, 1) at the centre of its 2^-32 bin.
func uniformDouble(v uint32) float64 {
	return float64(v)*twoPow32InvDouble + twoPow32InvDouble/2
}

// uniformDouble2 builds a 64-bit uniform from two words, hi first.
func uniformDouble2(hi, lo uint32) float64 {
	v := uint64(hi)<<32 | uint64(lo)
	return float64(v)*twoPow64InvDouble + twoPow64InvDouble/2
}

// Raw passes the words through unchanged.
type Raw struct{}

func (Raw) Width() int { return 4 }

func (Raw) Apply(b Block, out []uint32) {
	copy(out, b[:])
}

// Uniform produces float32 values in (0, 1], one per word.
type Uniform struct{}

func (Uniform) Width() int { return 4 }

func (Uniform) Apply(b Block, out []float32) {
	for i, v := range b {
		out[i] = uniformFloat(v)
	}
}

// UniformDouble produces float64 values in (0, 1), one per word.
type UniformDouble struct{}

func (UniformDouble) Width() int { return 4 }

func (UniformDouble) Apply(b Block, out []float64) {
	for i, v := range b {
		out[i] = uniformDouble(v)
	}
}

// boxMuller turns two words into two standard normal deviates.
func boxMuller(x, y uint32) (float32, float32) {
	u := float64(uniformFloat(x))
	v := float64(uniformFloat(y)) * 2 * math.Pi
	s := math.Sqrt(-2 * math.Log(u))
	sin, cos := math.Sincos(v)
	return float32(sin * s), float32(cos * s)
}

// boxMullerDouble turns a whole block into two standard normal deviates.
func boxMullerDouble(b Block) (float64, float64) {
	u := uniformDouble2(b[0], b[1])
	v := uniformDouble2(b[2], b[3]) * 2 * math.Pi
	s := math.Sqrt(-2 * math.Log(u))
	sin, cos := math.Sincos(v)
	return sin * s, cos * s
}

// Normal produces float32 normal deviates, pairing words (x,y) and (z,w).
//
// When the producing lane is mid-block the pairs straddle the original
// pair boundary, so a resumed stream is not identical to an uninterrupted
// one. This matches the reference engine and is kept for compatibility.
type Normal struct {
	Mean, Stddev float32
}

func (Normal) Width() int { return 4 }

func (d Normal) Apply(b Block, out []float32) {
	n0, n1 := boxMuller(b[0], b[1])
	n2, n3 := boxMuller(b[2], b[3])
	out[0] = d.Mean + n0*d.Stddev
	out[1] = d.Mean + n1*d.Stddev
	out[2] = d.Mean + n2*d.Stddev
	out[3] = d.Mean + n3*d.Stddev
}

// NormalDouble produces two float64 normal deviates per block.
type NormalDouble struct {
	Mean, Stddev float64
}

func (NormalDouble) Width() int { return 2 }

func (d NormalDouble) Apply(b Block, out []float64) {
	n0, n1 := boxMullerDouble(b)
	out[0] = d.Mean + n0*d.Stddev
	out[1] = d.Mean + n1*d.Stddev
}

// LogNormal produces exp of Normal deviates.
type LogNormal struct {
	Mean, Stddev float32
}

func (LogNormal) Width() int { return 4 }

func (d LogNormal) Apply(b Block, out []float32) {
	Normal(d).Apply(b, out)
	for i := range out[:4] {
		out[i] = float32(math.Exp(float64(out[i])))
	}
}

// LogNormalDouble produces exp of NormalDouble deviates.
type LogNormalDouble struct {
	Mean, Stddev float64
}

func (LogNormalDouble) Width() int { return 2 }

func (d LogNormalDouble) Apply(b Block, out []float64) {
	NormalDouble(d).Apply(b, out)
	out[0] = math.Exp(out[0])
	out[1] = math.Exp(out[1])
}
