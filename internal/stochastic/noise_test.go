package stochastic

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhiteNoiseScalesWithDt(t *testing.T) {
	w := NewWhiteNoise(0, 1, 1)
	rng := rand.New(rand.NewSource(1))

	var sumSq float64
	const n = 20000
	for i := 0; i < n; i++ {
		v := w.SampleDt(rng, 4.0)
		sumSq += v * v
	}
	variance := sumSq / n
	// scale = sqrt(dt*rate) = 2, so variance should be near 4.
	assert.InDelta(t, 4.0, variance, 0.5)
}

func TestPinkNoiseVossReproducible(t *testing.T) {
	p1 := NewPinkNoiseVoss(1, 0, 8)
	p2 := NewPinkNoiseVoss(1, 0, 8)
	r1 := rand.New(rand.NewSource(5))
	r2 := rand.New(rand.NewSource(5))

	for i := 0; i < 50; i++ {
		assert.Equal(t, p1.Sample(r1), p2.Sample(r2))
	}
}

func TestPinkNoiseVossResetRestartsOctaveRefresh(t *testing.T) {
	p := NewPinkNoiseVoss(1, 0, 4)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 10; i++ {
		p.Sample(rng)
	}
	p.Reset()
	for _, v := range p.whiteValues {
		assert.Equal(t, float64(0), v)
	}
}

func TestPinkNoiseKelletBounded(t *testing.T) {
	p := NewPinkNoiseKellet(1, 0)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		v := p.Sample(rng)
		assert.False(t, math.IsNaN(v))
		assert.Less(t, math.Abs(v), 5.0)
	}
}
