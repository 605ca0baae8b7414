// Package integrator implements component I: the five numerical
// integrators sharing one state-advance contract. Euler, RK4 and
// Backward-Euler are grounded on
// _examples/original_source/src/simulation/integrator.rs; RK45's
// Dormand-Prince coefficients are grounded on
// _examples/other_examples/8490ca05_soypat-godesim__algorithms.go.go's
// DormandPrinceSolver, reused verbatim.
package integrator

import (
	"github.com/bfix/sysdyn/internal/model"
	"github.com/bfix/sysdyn/internal/simstate"
	"github.com/bfix/sysdyn/internal/step"
)

// Integrator implements step(model, state, dt) -> state'.
type Integrator interface {
	Step(m *model.Model, st *simstate.State, dt float64) (*simstate.State, error)
}

// applyConstraints clamps each stock to its configured bounds after
// the integrator has computed new values, common
// obligations.
func applyConstraints(m *model.Model, st *simstate.State) {
	for _, name := range m.StockNames() {
		stock, _ := m.Stock(name)
		v, _ := st.Stock(name)
		if stock.NonNegative && v < 0 {
			v = 0
		}
		if stock.HasMax && v > stock.MaxValue {
			v = stock.MaxValue
		}
		st.SetStock(name, v)
	}
}

// applyDerivatives advances every stock by derivative*h starting from
// base and writes the result into dst.
func applyDerivatives(m *model.Model, base *simstate.State, derivatives map[string]float64, h float64, dst *simstate.State) {
	for _, name := range m.StockNames() {
		v, _ := base.Stock(name)
		dst.SetStock(name, v+derivatives[name]*h)
	}
}

// storeResult copies a step.Result's auxiliary and flow maps into dst
// ("Store the evaluator's last auxiliary and flow maps as
// state'... corresponding maps").
func storeResult(dst *simstate.State, res *step.Result) {
	for k, v := range res.Auxiliaries {
		dst.SetAuxiliary(k, v)
	}
	for k, v := range res.Flows {
		dst.SetFlow(k, v)
	}
}

func cloneWithTime(st *simstate.State, time float64) *simstate.State {
	out := st.Clone()
	out.TimeValue = time
	return out
}
