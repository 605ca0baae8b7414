package delay

// Manager keyed-registers ExponentialDelay/PipelineDelay instances by
// call-site identifier, creating one on first reference (
// "Each call site obtains (or creates on first reference) a delay
// instance..."). It implements internal/model.DelayRegistry
// structurally.
type Manager struct {
	exponential map[string]*ExponentialDelay
	pipeline    map[string]*PipelineDelay
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		exponential: make(map[string]*ExponentialDelay),
		pipeline:    make(map[string]*PipelineDelay),
	}
}

// Clone deep-copies the manager so a trial state produced by a
// multi-stage integrator does not mutate the primitive state of the
// state it was staged from (SimulationState ownership rule).
func (m *Manager) Clone() *Manager {
	out := NewManager()
	for k, v := range m.exponential {
		stages := append([]float64(nil), v.Stages...)
		out.exponential[k] = &ExponentialDelay{Order: v.Order, Stages: stages}
	}
	for k, v := range m.pipeline {
		hist := append([]HistoryPoint(nil), v.History...)
		out.pipeline[k] = &PipelineDelay{Initial: v.Initial, DelayTime: v.DelayTime, History: hist}
	}
	return out
}

func (m *Manager) expDelay(key string, order int, initial float64) *ExponentialDelay {
	d, ok := m.exponential[key]
	if !ok {
		d = NewExponentialDelay(order, initial)
		m.exponential[key] = d
	}
	return d
}

// Delay1 implements order-1 exponential delay, aliased by both
// DELAY1 and SMOOTH share the same underlying cascade.
func (m *Manager) Delay1(key string, input, delayTime, initial, dt float64) float64 {
	return m.expDelay(key, 1, initial).Advance(input, delayTime, dt)
}

// Smooth is an alias of Delay1 with its own call-site key.
func (m *Manager) Smooth(key string, input, delayTime, initial, dt float64) float64 {
	return m.expDelay(key, 1, initial).Advance(input, delayTime, dt)
}

// Delay3 implements order-3 exponential delay.
func (m *Manager) Delay3(key string, input, delayTime, initial, dt float64) float64 {
	return m.expDelay(key, 3, initial).Advance(input, delayTime, dt)
}

// DelayP implements the pure pipeline delay.
func (m *Manager) DelayP(key string, input, delayTime, initial, currentTime float64) float64 {
	d, ok := m.pipeline[key]
	if !ok {
		d = NewPipelineDelay(delayTime, initial)
		m.pipeline[key] = d
	}
	return d.Advance(input, currentTime)
}
