// Package step implements the step evaluator: bounded fixed-point
// auxiliary resolution, flow evaluation, and per-stock derivative
// computation. Grounded on
// _examples/original_source/src/simulation/integrator.rs's shared
// resolve/derivative helpers; the fixed-point algorithm is implemented
// literally rather than replaced by a topological sort (see DESIGN.md's
// Open Question 4).
package step

import (
	"math"

	"github.com/bfix/sysdyn/internal/delay"
	"github.com/bfix/sysdyn/internal/model"
	"github.com/bfix/sysdyn/internal/simstate"
	"github.com/bfix/sysdyn/internal/stochastic"
)

const (
	maxPasses           = 20
	convergenceTol       = 1e-10
	toleratedErrorPasses = 5 // errors swallowed on passes 0..4
)

// Result holds the outputs of one evaluate-at call: the resolved
// auxiliary map, the evaluated flow map, and each stock's derivative.
type Result struct {
	Auxiliaries map[string]float64
	Flows       map[string]float64
	Derivatives map[string]float64
}

// EvaluateAt resolves auxiliaries, evaluates flows, and computes
// stock derivatives at the given time against state, committing any
// DELAY1/SMOOTH/DELAY3/DELAYP/PINK_NOISE/PINK_NOISE_HQ/RANDOM/...
// primitive advancement into state's own delay/stochastic registries.
// Call this exactly once per accepted real step/call-site ("Primitive
// side-effects accumulated during evaluation are folded back into the
// returned state"); time is threaded explicitly so multi-stage
// integrators can evaluate at a sub-stage time distinct from
// state.Time() (resolved per DESIGN.md). Intermediate, possibly
// discarded evaluation (fixed-point passes, RK sub-stages, rejected
// substeps) must use EvaluateTrial instead, so a stateful primitive
// never advances more than once per real step.
func EvaluateAt(m *model.Model, st *simstate.State, time float64) (*Result, error) {
	return evaluateAt(m, st, st.Delays(), st.Stochastic(), time, m.Time.Dt)
}

// EvaluateCommit is EvaluateAt with dt threaded explicitly, for
// integrators whose accepted real step is shorter than the model's
// configured step (RK45's adaptive substeps).
func EvaluateCommit(m *model.Model, st *simstate.State, time, dt float64) (*Result, error) {
	return evaluateAt(m, st, st.Delays(), st.Stochastic(), time, dt)
}

// EvaluateTrial evaluates like EvaluateAt but against disposable clones
// of state's delay/stochastic registries, so a stateful primitive
// embedded in an auxiliary or flow equation advances a throwaway copy
// instead of state's live primitives. dt is threaded explicitly
// because a trial evaluation may represent a sub-step shorter than the
// model's configured step (RK45's adaptive substeps).
func EvaluateTrial(m *model.Model, st *simstate.State, time, dt float64) (*Result, error) {
	return evaluateAt(m, st, st.Delays().Clone(), st.Stochastic().Clone(), time, dt)
}

func evaluateAt(m *model.Model, st *simstate.State, delays *delay.Manager, stoch *stochastic.Manager, time, dt float64) (*Result, error) {
	auxiliaries, err := resolveAuxiliaries(m, st, delays, stoch, time, dt)
	if err != nil {
		return nil, err
	}

	ctx := &evalContext{model: m, state: st, delays: delays, stochastic: stoch, auxiliaries: auxiliaries, flows: make(map[string]float64), time: time, dt: dt}
	flows := make(map[string]float64, len(m.FlowNames()))
	for _, name := range m.FlowNames() {
		flow, _ := m.Flow(name)
		v, err := model.Evaluate(flow.Equation, ctx)
		if err != nil {
			return nil, err
		}
		flows[name] = v
		ctx.flows[name] = v
	}

	derivatives := make(map[string]float64, len(m.StockNames()))
	for _, name := range m.StockNames() {
		stock, _ := m.Stock(name)
		var d float64
		for _, in := range stock.Inflows {
			v, ok := flows[in]
			if !ok {
				return nil, &model.MissingFlowError{StockName: name, FlowName: in}
			}
			d += v
		}
		for _, out := range stock.Outflows {
			v, ok := flows[out]
			if !ok {
				return nil, &model.MissingFlowError{StockName: name, FlowName: out}
			}
			d -= v
		}
		derivatives[name] = d
	}

	return &Result{Auxiliaries: auxiliaries, Flows: flows, Derivatives: derivatives}, nil
}

// resolveAuxiliaries runs bounded fixed-point iteration, then replays
// the converged (or pass-exhausted) values exactly once against
// delays/stoch, the registries this call actually commits into. Every
// pass before that replay evaluates against a registry clone re-cloned
// from delays/stoch on every iteration, so a stateful primitive
// embedded in an auxiliary equation never compounds across passes and
// never touches delays/stoch until the final, single commit (see
// review fix: passes used to mutate the live registries directly, so a
// DELAY1/etc. call inside an auxiliary advanced once per pass instead
// of once per real step).
func resolveAuxiliaries(m *model.Model, st *simstate.State, delays *delay.Manager, stoch *stochastic.Manager, time, dt float64) (map[string]float64, error) {
	names := m.AuxNames()
	current := make(map[string]float64, len(names))
	for _, name := range names {
		v, _ := st.Auxiliary(name)
		current[name] = v
	}
	if len(names) == 0 {
		return current, nil
	}

	var firstErr error
	converged := false
	for pass := 0; pass < maxPasses; pass++ {
		ctx := &evalContext{model: m, state: st, delays: delays.Clone(), stochastic: stoch.Clone(), auxiliaries: current, flows: nil, time: time, dt: dt}
		next := make(map[string]float64, len(names))
		maxDelta := 0.0
		passErr := error(nil)
		for _, name := range names {
			aux, _ := m.Auxiliary(name)
			v, err := model.Evaluate(aux.Equation, ctx)
			if err != nil {
				if passErr == nil {
					passErr = err
				}
				if firstErr == nil {
					firstErr = err
				}
				next[name] = current[name]
				continue
			}
			delta := math.Abs(v - current[name])
			if delta > maxDelta {
				maxDelta = delta
			}
			next[name] = v
		}
		current = next

		if passErr != nil {
			if pass >= toleratedErrorPasses {
				return nil, passErr
			}
			continue
		}
		if maxDelta <= convergenceTol {
			converged = true
			break
		}
	}
	if !converged && firstErr != nil {
		return nil, firstErr
	}

	commitCtx := &evalContext{model: m, state: st, delays: delays, stochastic: stoch, auxiliaries: current, flows: nil, time: time, dt: dt}
	final := make(map[string]float64, len(names))
	for _, name := range names {
		aux, _ := m.Auxiliary(name)
		v, err := model.Evaluate(aux.Equation, commitCtx)
		if err != nil {
			return nil, err
		}
		final[name] = v
	}
	return final, nil
}

// evalContext implements model.Context for a fixed auxiliary snapshot
// and (once flows are being computed) an accumulating flow map, at an
// explicit time distinct from the underlying state's own time.
// delays/stochastic are whatever registries this particular evaluation
// was given (the state's live ones, or a disposable clone); evalContext
// never chooses between them itself.
type evalContext struct {
	model       *model.Model
	state       *simstate.State
	delays      model.DelayRegistry
	stochastic  model.StochasticRegistry
	auxiliaries map[string]float64
	flows       map[string]float64
	time        float64
	dt          float64
}

func (c *evalContext) Time() float64 { return c.time }
func (c *evalContext) Dt() float64   { return c.dt }

func (c *evalContext) Parameter(name string) (float64, bool) {
	p, ok := c.model.Parameter(name)
	if !ok {
		return 0, false
	}
	return p.Value, true
}
func (c *evalContext) Stock(name string) (float64, bool) { return c.state.Stock(name) }
func (c *evalContext) Flow(name string) (float64, bool) {
	if c.flows == nil {
		return 0, false
	}
	v, ok := c.flows[name]
	return v, ok
}
func (c *evalContext) Auxiliary(name string) (float64, bool) {
	v, ok := c.auxiliaries[name]
	return v, ok
}
func (c *evalContext) Table(name string) (*model.LookupTable, bool) { return c.model.Table(name) }
func (c *evalContext) CallSiteID(call *model.FunctionCall) string   { return c.model.CallSiteID(call) }
func (c *evalContext) Delays() model.DelayRegistry                 { return c.delays }
func (c *evalContext) Stochastic() model.StochasticRegistry        { return c.stochastic }
