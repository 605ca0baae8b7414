package integrator

import (
	"math"

	"github.com/bfix/sysdyn/internal/logging"
	"github.com/bfix/sysdyn/internal/model"
	"github.com/bfix/sysdyn/internal/simstate"
	"github.com/bfix/sysdyn/internal/step"
)

// BackwardEuler is the implicit Euler method, solved by fixed-point
// iteration rather than Newton-Raphson ("the resolution
// strategy for the implicit equation is fixed-point iteration, not
// Newton's method, to avoid requiring a Jacobian"). The initial guess
// is one explicit-Euler step; each iteration re-evaluates derivatives
// at t+dt against the current guess and updates s^(k+1) = sn +
// dt*f(t+dt, s^(k)). Non-convergence after MaxIterations does not
// fail the run: the last guess is returned with a warning.
type BackwardEuler struct {
	MaxIterations int
	Tolerance     float64
}

// NewBackwardEuler returns a BackwardEuler with standard defaults
// (max_iterations 20, tolerance 1e-6).
func NewBackwardEuler() BackwardEuler {
	return BackwardEuler{MaxIterations: 20, Tolerance: 1e-6}
}

func (b BackwardEuler) Step(m *model.Model, st *simstate.State, dt float64) (*simstate.State, error) {
	maxIter := b.MaxIterations
	if maxIter <= 0 {
		maxIter = 20
	}
	tol := b.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}

	t := st.Time()

	res0, err := step.EvaluateTrial(m, st, t, dt)
	if err != nil {
		return nil, err
	}
	guess := cloneWithTime(st, t+dt)
	applyDerivatives(m, st, res0.Derivatives, dt, guess)
	applyConstraints(m, guess)

	converged := false
	for iter := 0; iter < maxIter; iter++ {
		res, err := step.EvaluateTrial(m, guess, t+dt, dt)
		if err != nil {
			return nil, err
		}

		next := cloneWithTime(st, t+dt)
		applyDerivatives(m, st, res.Derivatives, dt, next)
		applyConstraints(m, next)

		maxDelta := 0.0
		for _, name := range m.StockNames() {
			prev, _ := guess.Stock(name)
			cur, _ := next.Stock(name)
			if d := math.Abs(cur - prev); d > maxDelta {
				maxDelta = d
			}
		}
		guess = next
		if maxDelta < tol {
			converged = true
			break
		}
	}

	if !converged {
		logging.Warnf("backward-euler: did not converge within %d iterations at t=%g, returning best guess\n", maxIter, t)
	}

	// The converged (or best-effort) guess is re-evaluated exactly once
	// more, against its own live registries, so any embedded stateful
	// primitive advances once per real step rather than once per
	// fixed-point iteration (review fix).
	res, err := step.EvaluateAt(m, guess, t+dt)
	if err != nil {
		return nil, err
	}
	storeResult(guess, res)
	applyConstraints(m, guess)
	return guess, nil
}
