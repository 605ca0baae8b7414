// Package stochastic implements component D: seeded random number
// generation, the standard distributions, and white/pink noise
// generators. Grounded on
// _examples/original_source/src/simulation/{stochastic,noise}.rs;
// the Paul Kellet and Voss-McCartney coefficients are reused verbatim.
package stochastic

import (
	"math"
	"math/rand"
)

// WhiteNoise generates uncorrelated Gaussian samples, scaling standard
// deviation by sqrt(dt*rate) so the integrated process has stationary
// variance.
type WhiteNoise struct {
	Mean, StdDev, SampleRate float64
}

func NewWhiteNoise(mean, stdDev, sampleRate float64) *WhiteNoise {
	return &WhiteNoise{Mean: mean, StdDev: stdDev, SampleRate: sampleRate}
}

// SampleDt draws one sample scaled for a step of size dt.
func (w *WhiteNoise) SampleDt(rng *rand.Rand, dt float64) float64 {
	scale := math.Sqrt(dt * w.SampleRate)
	return w.Mean + rng.NormFloat64()*w.StdDev*scale
}

// PinkNoiseVoss generates 1/f noise via the Voss-McCartney algorithm:
// num_octaves independent white values, each refreshed whenever the
// call counter is divisible by 2^i, summed and averaged.
type PinkNoiseVoss struct {
	NumOctaves           int
	whiteValues          []float64
	counter              uint64
	Amplitude, Offset    float64
}

func NewPinkNoiseVoss(amplitude, offset float64, numOctaves int) *PinkNoiseVoss {
	return &PinkNoiseVoss{
		NumOctaves: numOctaves,
		whiteValues: make([]float64, numOctaves),
		Amplitude:  amplitude,
		Offset:     offset,
	}
}

func (p *PinkNoiseVoss) Sample(rng *rand.Rand) float64 {
	sum := 0.0
	for i := 0; i < p.NumOctaves; i++ {
		if p.counter%(uint64(1)<<uint(i)) == 0 {
			p.whiteValues[i] = rng.Float64()*2 - 1
		}
		sum += p.whiteValues[i]
	}
	p.counter++
	return p.Offset + p.Amplitude*(sum/float64(p.NumOctaves))
}

func (p *PinkNoiseVoss) Reset() {
	for i := range p.whiteValues {
		p.whiteValues[i] = 0
	}
	p.counter = 0
}

// PinkNoiseKellet implements Paul Kellet's 7-tap pink noise filter,
// with the exact published coefficients.
type PinkNoiseKellet struct {
	b0, b1, b2, b3, b4, b5, b6 float64
	Amplitude, Offset          float64
}

func NewPinkNoiseKellet(amplitude, offset float64) *PinkNoiseKellet {
	return &PinkNoiseKellet{Amplitude: amplitude, Offset: offset}
}

func (p *PinkNoiseKellet) Sample(rng *rand.Rand) float64 {
	white := rng.Float64()*2 - 1

	p.b0 = 0.99886*p.b0 + white*0.0555179
	p.b1 = 0.99332*p.b1 + white*0.0750759
	p.b2 = 0.96900*p.b2 + white*0.1538520
	p.b3 = 0.86650*p.b3 + white*0.3104856
	p.b4 = 0.55000*p.b4 + white*0.5329522
	p.b5 = -0.7616*p.b5 - white*0.0168980

	pink := p.b0 + p.b1 + p.b2 + p.b3 + p.b4 + p.b5 + p.b6 + white*0.5362
	p.b6 = white * 0.115926

	return p.Offset + p.Amplitude*(pink/7.0)
}

func (p *PinkNoiseKellet) Reset() {
	p.b0, p.b1, p.b2, p.b3, p.b4, p.b5, p.b6 = 0, 0, 0, 0, 0, 0, 0
}

