package integrator

import (
	"github.com/bfix/sysdyn/internal/model"
	"github.com/bfix/sysdyn/internal/simstate"
	"github.com/bfix/sysdyn/internal/step"
)

// Euler is one derivative evaluation at t: s[n+1] = s[n] + dt*f(t, s).
type Euler struct{}

func (Euler) Step(m *model.Model, st *simstate.State, dt float64) (*simstate.State, error) {
	next := cloneWithTime(st, st.Time()+dt)
	res, err := step.EvaluateAt(m, next, st.Time())
	if err != nil {
		return nil, err
	}
	applyDerivatives(m, st, res.Derivatives, dt, next)
	storeResult(next, res)
	applyConstraints(m, next)
	return next, nil
}

// Heun is the RK2 predictor-corrector: k1 = f(t,s), k2 = f(t+dt,
// s+dt*k1), s[n+1] = s[n] + dt/2*(k1+k2); auxiliaries/flows are
// recorded from the corrector stage, which is also the only stage that
// commits a stateful primitive's advancement (k1 is a sandboxed trial
// evaluation, per the review fix for over-advancing delays/noise).
type Heun struct{}

func (Heun) Step(m *model.Model, st *simstate.State, dt float64) (*simstate.State, error) {
	res1, err := step.EvaluateTrial(m, st, st.Time(), dt)
	if err != nil {
		return nil, err
	}
	next := cloneWithTime(st, st.Time()+dt)
	applyDerivatives(m, st, res1.Derivatives, dt, next)

	res2, err := step.EvaluateAt(m, next, st.Time()+dt)
	if err != nil {
		return nil, err
	}

	for _, name := range m.StockNames() {
		v, _ := st.Stock(name)
		k1 := res1.Derivatives[name]
		k2 := res2.Derivatives[name]
		next.SetStock(name, v+dt/2*(k1+k2))
	}
	storeResult(next, res2)
	applyConstraints(m, next)
	return next, nil
}
