package integrator

import (
	"github.com/bfix/sysdyn/internal/model"
	"github.com/bfix/sysdyn/internal/simstate"
	"github.com/bfix/sysdyn/internal/step"
)

// RK4 is the classical four-stage Runge-Kutta method with weights
// (1,2,2,1)/6. Auxiliaries/flows, and any stateful primitive's
// advancement, are recorded/committed from the final stage only; the
// first three stages are sandboxed trial evaluations (review fix for
// over-advancing delays/noise once per sub-stage instead of once per
// real step).
type RK4 struct{}

func (RK4) Step(m *model.Model, st *simstate.State, dt float64) (*simstate.State, error) {
	t := st.Time()

	res1, err := step.EvaluateTrial(m, st, t, dt)
	if err != nil {
		return nil, err
	}
	stage2 := cloneWithTime(st, t+dt/2)
	applyDerivatives(m, st, res1.Derivatives, dt/2, stage2)

	res2, err := step.EvaluateTrial(m, stage2, t+dt/2, dt)
	if err != nil {
		return nil, err
	}
	stage3 := cloneWithTime(st, t+dt/2)
	applyDerivatives(m, st, res2.Derivatives, dt/2, stage3)

	res3, err := step.EvaluateTrial(m, stage3, t+dt/2, dt)
	if err != nil {
		return nil, err
	}
	next := cloneWithTime(st, t+dt)
	applyDerivatives(m, st, res3.Derivatives, dt, next)

	res4, err := step.EvaluateAt(m, next, t+dt)
	if err != nil {
		return nil, err
	}

	for _, name := range m.StockNames() {
		v, _ := st.Stock(name)
		k1 := res1.Derivatives[name]
		k2 := res2.Derivatives[name]
		k3 := res3.Derivatives[name]
		k4 := res4.Derivatives[name]
		next.SetStock(name, v+dt/6*(k1+2*k2+2*k3+k4))
	}
	storeResult(next, res4)
	applyConstraints(m, next)
	return next, nil
}
