package stochastic

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Manager is the seeded RNG plus per-identifier generator state for
// every stochastic function, keyed the same way internal/delay.Manager
// keys its delay instances: by call-site identifier. It implements
// internal/model.StochasticRegistry structurally.
//
// Normal, LogNormal and Poisson are sampled through
// gonum.org/v1/gonum/stat/distuv, which takes the package's own
// *rand.Rand as its entropy source, so the stdlib RNG stream and the
// gonum distributions share one deterministic sequence per seed.
type Manager struct {
	rng    *rand.Rand
	seed   uint64
	seeded bool

	white   map[string]*WhiteNoise
	voss    map[string]*PinkNoiseVoss
	kellet  map[string]*PinkNoiseKellet
}

// NewManager returns a Manager seeded from OS entropy.
func NewManager() *Manager {
	return &Manager{
		rng:    rand.New(rand.NewSource(rand.Int63())),
		white:  make(map[string]*WhiteNoise),
		voss:   make(map[string]*PinkNoiseVoss),
		kellet: make(map[string]*PinkNoiseKellet),
	}
}

// NewManagerWithSeed returns a Manager seeded deterministically, for
// reproducible runs, including bit-exact-trajectory
// invariant).
func NewManagerWithSeed(seed uint64) *Manager {
	m := &Manager{
		seed:   seed,
		seeded: true,
		white:  make(map[string]*WhiteNoise),
		voss:   make(map[string]*PinkNoiseVoss),
		kellet: make(map[string]*PinkNoiseKellet),
	}
	m.rng = rand.New(rand.NewSource(int64(seed)))
	return m
}

// Reseed resets the RNG to a new seed and clears every pink-noise
// generator's internal filter state, matching
// original_source/src/simulation/stochastic.rs's reseed.
func (m *Manager) Reseed(seed uint64) {
	m.seed = seed
	m.seeded = true
	m.rng = rand.New(rand.NewSource(int64(seed)))
	for _, g := range m.voss {
		g.Reset()
	}
	for _, g := range m.kellet {
		g.Reset()
	}
}

// Clone deep-copies the manager's RNG and generator state so a
// multi-stage integrator's trial states don't share (or corrupt) each
// other's stream.
func (m *Manager) Clone() *Manager {
	out := &Manager{
		seed:   m.seed,
		seeded: m.seeded,
		white:  make(map[string]*WhiteNoise, len(m.white)),
		voss:   make(map[string]*PinkNoiseVoss, len(m.voss)),
		kellet: make(map[string]*PinkNoiseKellet, len(m.kellet)),
	}
	rngCopy := *m.rng
	out.rng = &rngCopy
	for k, v := range m.white {
		vv := *v
		out.white[k] = &vv
	}
	for k, v := range m.voss {
		vv := *v
		vv.whiteValues = append([]float64(nil), v.whiteValues...)
		out.voss[k] = &vv
	}
	for k, v := range m.kellet {
		vv := *v
		out.kellet[k] = &vv
	}
	return out
}

func (m *Manager) Random() float64 { return m.rng.Float64() }

func (m *Manager) Uniform(a, b float64) float64 { return a + (b-a)*m.Random() }

func (m *Manager) Normal(mean, std float64) (float64, error) {
	if std < 0 {
		return 0, fmt.Errorf("invalid normal distribution parameters: std_dev %g < 0", std)
	}
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: m.rng}
	return dist.Rand(), nil
}

func (m *Manager) LogNormal(mean, std float64) (float64, error) {
	if std < 0 {
		return 0, fmt.Errorf("invalid log-normal distribution parameters: std_dev %g < 0", std)
	}
	dist := distuv.LogNormal{Mu: mean, Sigma: std, Src: m.rng}
	return dist.Rand(), nil
}

func (m *Manager) Poisson(lambda float64) (float64, error) {
	if lambda <= 0 {
		return 0, fmt.Errorf("poisson lambda must be positive")
	}
	dist := distuv.Poisson{Lambda: lambda, Src: m.rng}
	return dist.Rand(), nil
}

func (m *Manager) WhiteNoise(key string, mean, std, dt float64) float64 {
	g, ok := m.white[key]
	if !ok {
		g = NewWhiteNoise(mean, std, 1.0)
		m.white[key] = g
	}
	return g.SampleDt(m.rng, dt)
}

func (m *Manager) PinkNoise(key string, amplitude, offset float64) float64 {
	g, ok := m.voss[key]
	if !ok {
		g = NewPinkNoiseVoss(amplitude, offset, 16)
		m.voss[key] = g
	}
	return g.Sample(m.rng)
}

func (m *Manager) PinkNoiseHQ(key string, amplitude, offset float64) float64 {
	g, ok := m.kellet[key]
	if !ok {
		g = NewPinkNoiseKellet(amplitude, offset)
		m.kellet[key] = g
	}
	return g.Sample(m.rng)
}
