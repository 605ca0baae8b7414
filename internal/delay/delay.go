// Package delay implements the stateful delay primitives: Nth-order
// exponential delays and the pure pipeline delay. Grounded on
// _examples/original_source/src/simulation/delay.rs, not on
// bfix-dynamo/src/dynamo/functions.go's Pseudo-template equation
// expansion, which cannot express genuine runtime state carried in a
// SimulationState.
package delay

// ExponentialDelay is a cascade of order stages, each a first-order
// lag with time constant delayTime/order.
type ExponentialDelay struct {
	Order  int
	Stages []float64
}

// NewExponentialDelay creates a delay with every stage filled to
// initial, so the initial value fills all stages.
func NewExponentialDelay(order int, initial float64) *ExponentialDelay {
	stages := make([]float64, order)
	for i := range stages {
		stages[i] = initial
	}
	return &ExponentialDelay{Order: order, Stages: stages}
}

// Advance integrates one Euler step of size dt and returns the new
// output (the last stage).
func (d *ExponentialDelay) Advance(input, delayTime, dt float64) float64 {
	stageTime := delayTime / float64(d.Order)
	next := make([]float64, d.Order)
	prev := input
	for i := 0; i < d.Order; i++ {
		deriv := (prev - d.Stages[i]) / stageTime
		next[i] = d.Stages[i] + deriv*dt
		prev = d.Stages[i]
	}
	d.Stages = next
	return d.Stages[d.Order-1]
}

// HistoryPoint is one (time, value) sample retained by a
// PipelineDelay.
type HistoryPoint struct {
	Time, Value float64
}

// PipelineDelay is a pure time delay implemented by buffering
// historical inputs and interpolating at t-delayTime.
type PipelineDelay struct {
	Initial    float64
	DelayTime  float64
	History    []HistoryPoint
}

// NewPipelineDelay creates an empty pipeline delay.
func NewPipelineDelay(delayTime, initial float64) *PipelineDelay {
	return &PipelineDelay{Initial: initial, DelayTime: delayTime}
}

// Advance appends (currentTime, input) to the history, prunes entries
// older than needed, and returns the value at currentTime-delayTime.
func (d *PipelineDelay) Advance(input, currentTime float64) float64 {
	d.History = append(d.History, HistoryPoint{Time: currentTime, Value: input})
	d.prune(currentTime)
	return d.lookup(currentTime - d.DelayTime)
}

// prune drops history older than 2*DelayTime before currentTime,
// keeping at least one point before the retention horizon so
// interpolation at the lookup boundary still has a left bracket.
func (d *PipelineDelay) prune(currentTime float64) {
	horizon := currentTime - 2*d.DelayTime
	cut := 0
	for cut < len(d.History)-1 && d.History[cut+1].Time <= horizon {
		cut++
	}
	if cut > 0 {
		d.History = d.History[cut:]
	}
}

func (d *PipelineDelay) lookup(target float64) float64 {
	if len(d.History) == 0 || target < d.History[0].Time {
		return d.Initial
	}
	last := len(d.History) - 1
	if target >= d.History[last].Time {
		return d.History[last].Value
	}
	for i := 1; i <= last; i++ {
		if target <= d.History[i].Time {
			a, b := d.History[i-1], d.History[i]
			if b.Time == a.Time {
				return b.Value
			}
			alpha := (target - a.Time) / (b.Time - a.Time)
			return a.Value + alpha*(b.Value-a.Value)
		}
	}
	return d.History[last].Value
}
