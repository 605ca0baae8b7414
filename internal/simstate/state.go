// Package simstate holds SimulationState (component G): a
// point-in-time snapshot of stock/flow/auxiliary values plus the
// primitive substate (delays, RNG) threaded between steps. Grounded
// on _examples/original_source/src/simulation/engine.rs's
// SimulationState and integrator.rs's per-stage trial-state cloning.
package simstate

import (
	"github.com/bfix/sysdyn/internal/delay"
	"github.com/bfix/sysdyn/internal/model"
	"github.com/bfix/sysdyn/internal/stochastic"
)

// State is a point-in-time snapshot. Stocks/flows/auxiliaries are
// exhaustive over the model's corresponding collections; flows and
// auxiliaries default to 0 at t=start.
type State struct {
	TimeValue float64

	stocks      map[string]float64
	flows       map[string]float64
	auxiliaries map[string]float64

	delays     *delay.Manager
	stochastic *stochastic.Manager
}

// New builds the initial state from a Model: stocks take their
// initial Expression's value, flows and auxiliaries are zeroed, and
// primitive state starts empty (Lifecycle).
func New(m *model.Model, seed uint64, seeded bool) (*State, error) {
	s := &State{
		TimeValue:   m.Time.Start,
		stocks:      make(map[string]float64, len(m.StockNames())),
		flows:       make(map[string]float64, len(m.FlowNames())),
		auxiliaries: make(map[string]float64, len(m.AuxNames())),
		delays:      delay.NewManager(),
	}
	if seeded {
		s.stochastic = stochastic.NewManagerWithSeed(seed)
	} else {
		s.stochastic = stochastic.NewManager()
	}
	for _, name := range m.FlowNames() {
		s.flows[name] = 0
	}
	for _, name := range m.AuxNames() {
		s.auxiliaries[name] = 0
	}
	ctx := &initContext{state: s, model: m}
	for _, name := range m.StockNames() {
		stock, _ := m.Stock(name)
		v, err := model.Evaluate(stock.Initial, ctx)
		if err != nil {
			return nil, err
		}
		s.stocks[name] = v
	}
	return s, nil
}

// Clone produces an independent copy suitable for a multi-stage
// integrator's transient trial state (Ownership: "trial
// states produced by multi-stage integrators are owned transiently").
func (s *State) Clone() *State {
	out := &State{
		TimeValue:   s.TimeValue,
		stocks:      make(map[string]float64, len(s.stocks)),
		flows:       make(map[string]float64, len(s.flows)),
		auxiliaries: make(map[string]float64, len(s.auxiliaries)),
		delays:      s.delays.Clone(),
		stochastic:  s.stochastic.Clone(),
	}
	for k, v := range s.stocks {
		out.stocks[k] = v
	}
	for k, v := range s.flows {
		out.flows[k] = v
	}
	for k, v := range s.auxiliaries {
		out.auxiliaries[k] = v
	}
	return out
}

func (s *State) Time() float64 { return s.TimeValue }

func (s *State) Stock(name string) (float64, bool)     { v, ok := s.stocks[name]; return v, ok }
func (s *State) Flow(name string) (float64, bool)      { v, ok := s.flows[name]; return v, ok }
func (s *State) Auxiliary(name string) (float64, bool) { v, ok := s.auxiliaries[name]; return v, ok }

func (s *State) SetStock(name string, v float64)     { s.stocks[name] = v }
func (s *State) SetFlow(name string, v float64)      { s.flows[name] = v }
func (s *State) SetAuxiliary(name string, v float64) { s.auxiliaries[name] = v }

func (s *State) Stocks() map[string]float64      { return s.stocks }
func (s *State) Flows() map[string]float64       { return s.flows }
func (s *State) Auxiliaries() map[string]float64 { return s.auxiliaries }

func (s *State) Delays() *delay.Manager           { return s.delays }
func (s *State) Stochastic() *stochastic.Manager  { return s.stochastic }

// initContext is a minimal model.Context used only to evaluate a
// stock's initial expression, where flows/auxiliaries are not yet
// meaningful and delay/noise primitives should not normally appear.
type initContext struct {
	state *State
	model *model.Model
}

func (c *initContext) Time() float64 { return c.state.TimeValue }
func (c *initContext) Dt() float64   { return c.model.Time.Dt }

func (c *initContext) Parameter(name string) (float64, bool) {
	p, ok := c.model.Parameter(name)
	if !ok {
		return 0, false
	}
	return p.Value, true
}
func (c *initContext) Stock(name string) (float64, bool)     { return c.state.Stock(name) }
func (c *initContext) Flow(name string) (float64, bool)      { return c.state.Flow(name) }
func (c *initContext) Auxiliary(name string) (float64, bool) { return c.state.Auxiliary(name) }
func (c *initContext) Table(name string) (*model.LookupTable, bool) {
	return c.model.Table(name)
}
func (c *initContext) CallSiteID(call *model.FunctionCall) string { return c.model.CallSiteID(call) }
func (c *initContext) Delays() model.DelayRegistry                { return c.state.delays }
func (c *initContext) Stochastic() model.StochasticRegistry        { return c.state.stochastic }
