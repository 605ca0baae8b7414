package integrator

import (
	"fmt"
	"math"

	"github.com/bfix/sysdyn/internal/model"
	"github.com/bfix/sysdyn/internal/simstate"
	"github.com/bfix/sysdyn/internal/step"
)

// Dormand-Prince 4(5) Butcher tableau, reused verbatim from
// _examples/other_examples/8490ca05_soypat-godesim__algorithms.go.go's
// DormandPrinceSolver.
const (
	dpC20, dpC21                     = 1. / 5., 1. / 5.
	dpC30, dpC31, dpC32              = 3. / 10., 3. / 40., 9. / 40.
	dpC40, dpC41, dpC42, dpC43       = 4. / 5., 44. / 45., -56. / 15., 32. / 9.
	dpC50, dpC51, dpC52, dpC53, dpC54 = 8. / 9., 19372. / 6561., -25360. / 2187., 64448. / 6561., -212. / 729.
	dpC60, dpC61, dpC62, dpC63, dpC64, dpC65 = 1., 9017. / 3168., -355. / 33., 46732. / 5247., 49. / 176., -5103. / 18656.
	dpC71, dpC73, dpC74, dpC75, dpC76 = 35. / 384., 500. / 1113., 125. / 192., -2187. / 6784., 11. / 84.
	// Fifth-order solution weights (b2 = 0, omitted).
	dpB1, dpB3, dpB4, dpB5, dpB6 = 35. / 384., 500. / 1113., 125. / 192., -2187. / 6784., 11. / 84.
	// Fourth-order solution weights for the embedded error estimate.
	dpA1, dpA3, dpA4, dpA5, dpA6, dpA7 = 5179. / 57600., 7571. / 16695., 393. / 640., -92097. / 339200., 187. / 2100., 1. / 40.
)

// RK45 is the adaptive Dormand-Prince method: it subdivides the
// requested interval dt into internal substeps sized from the
// embedded 4th/5th order error estimate, accepting a substep only
// when its normalized error is within tolerance. The step fails with
// an error once MaxRejectionsTotal consecutive substeps are rejected,
// or when a substep of size MinStep is rejected.
type RK45 struct {
	RelTol, AbsTol     float64
	Safety             float64
	MinStep, MaxStep   float64
	MaxRejectionsTotal int
}

// NewRK45 returns an RK45 with standard defaults (rtol 1e-6, atol
// 1e-8, safety 0.9, min_step 1e-10, max_step 1).
func NewRK45() RK45 {
	return RK45{RelTol: 1e-6, AbsTol: 1e-8, Safety: 0.9, MinStep: 1e-10, MaxStep: 1, MaxRejectionsTotal: 10}
}

func (r RK45) Step(m *model.Model, st *simstate.State, dt float64) (*simstate.State, error) {
	_, _, safety, minStep, maxStep := r.defaults()

	remaining := dt
	cur := st
	h := math.Min(maxStep, remaining)
	rejections := 0

	for remaining > 1e-15 {
		if h > remaining {
			h = remaining
		}
		if h < minStep {
			h = minStep
		}

		next, errNorm, err := r.trySubstep(m, cur, h)
		if err != nil {
			return nil, err
		}

		accept := errNorm <= 1.0
		if !accept && (rejections+1 >= r.maxRejections() || h <= minStep) {
			return nil, fmt.Errorf("rk45: substep rejected %d times near t=%g (h=%g, min_step=%g)", rejections+1, cur.Time(), h, minStep)
		}

		if accept {
			// trySubstep's stages are all sandboxed trial evaluations
			// (a substep may yet be rejected above), so the accepted
			// candidate is re-evaluated once more here, against its
			// own live registries, to actually commit any stateful
			// primitive's advancement (review fix).
			res, err := step.EvaluateCommit(m, next, next.Time(), h)
			if err != nil {
				return nil, err
			}
			storeResult(next, res)
			applyConstraints(m, next)
			cur = next
			remaining -= h
			factor := safety * math.Pow(math.Max(errNorm, 1e-12), -0.2)
			factor = math.Max(0.2, math.Min(5.0, factor))
			h = math.Min(maxStep, h*factor)
			rejections = 0
			continue
		}

		rejections++
		factor := safety * math.Pow(errNorm, -0.2)
		factor = math.Max(0.1, math.Min(1.0, factor))
		h = math.Max(minStep, h*factor)
	}

	return cur, nil
}

func (r RK45) defaults() (relTol, absTol, safety, minStep, maxStep float64) {
	relTol = r.RelTol
	if relTol <= 0 {
		relTol = 1e-6
	}
	absTol = r.AbsTol
	if absTol <= 0 {
		absTol = 1e-8
	}
	safety = r.Safety
	if safety <= 0 {
		safety = 0.9
	}
	minStep = r.MinStep
	if minStep <= 0 {
		minStep = 1e-10
	}
	maxStep = r.MaxStep
	if maxStep <= 0 {
		maxStep = 1
	}
	return
}

func (r RK45) maxRejections() int {
	if r.MaxRejectionsTotal <= 0 {
		return 10
	}
	return r.MaxRejectionsTotal
}

// rkTerm pairs a stage's derivative map with its Butcher coefficient.
type rkTerm struct {
	k map[string]float64
	c float64
}

// combine builds dst = base + h * sum(term.c * term.k) per stock.
func combine(m *model.Model, base, dst *simstate.State, h float64, terms ...rkTerm) {
	for _, name := range m.StockNames() {
		v, _ := base.Stock(name)
		sum := 0.0
		for _, term := range terms {
			sum += term.c * term.k[name]
		}
		dst.SetStock(name, v+h*sum)
	}
}

// trySubstep evaluates one Dormand-Prince substep of size h from cur,
// returning the 5th-order candidate state and its normalized error
// against the embedded 4th-order solution. Every stage is a sandboxed
// trial evaluation against a disposable registry clone, sized to h
// rather than the model's configured dt: the substep may still be
// rejected below, so nothing here may advance a live delay/noise
// primitive (review fix). The accepted candidate is re-evaluated for
// real, once, by the caller.
func (r RK45) trySubstep(m *model.Model, cur *simstate.State, h float64) (*simstate.State, float64, error) {
	relTol, absTol, _, _, _ := r.defaults()
	t := cur.Time()
	names := m.StockNames()

	res1, err := step.EvaluateTrial(m, cur, t, h)
	if err != nil {
		return nil, 0, err
	}
	k1 := res1.Derivatives

	stage2 := cloneWithTime(cur, t+dpC20*h)
	combine(m, cur, stage2, h, rkTerm{k1, dpC21})
	res2, err := step.EvaluateTrial(m, stage2, t+dpC20*h, h)
	if err != nil {
		return nil, 0, err
	}
	k2 := res2.Derivatives

	stage3 := cloneWithTime(cur, t+dpC30*h)
	combine(m, cur, stage3, h, rkTerm{k1, dpC31}, rkTerm{k2, dpC32})
	res3, err := step.EvaluateTrial(m, stage3, t+dpC30*h, h)
	if err != nil {
		return nil, 0, err
	}
	k3 := res3.Derivatives

	stage4 := cloneWithTime(cur, t+dpC40*h)
	combine(m, cur, stage4, h, rkTerm{k1, dpC41}, rkTerm{k2, dpC42}, rkTerm{k3, dpC43})
	res4, err := step.EvaluateTrial(m, stage4, t+dpC40*h, h)
	if err != nil {
		return nil, 0, err
	}
	k4 := res4.Derivatives

	stage5 := cloneWithTime(cur, t+dpC50*h)
	combine(m, cur, stage5, h, rkTerm{k1, dpC51}, rkTerm{k2, dpC52}, rkTerm{k3, dpC53}, rkTerm{k4, dpC54})
	res5stage, err := step.EvaluateTrial(m, stage5, t+dpC50*h, h)
	if err != nil {
		return nil, 0, err
	}
	k5 := res5stage.Derivatives

	stage6 := cloneWithTime(cur, t+dpC60*h)
	combine(m, cur, stage6, h, rkTerm{k1, dpC61}, rkTerm{k2, dpC62}, rkTerm{k3, dpC63}, rkTerm{k4, dpC64}, rkTerm{k5, dpC65})
	res6, err := step.EvaluateTrial(m, stage6, t+dpC60*h, h)
	if err != nil {
		return nil, 0, err
	}
	k6 := res6.Derivatives

	// 5th-order solution shares its weights with the Dormand-Prince
	// 7th stage (the method is FSAL: k7 equals next step's k1).
	next := cloneWithTime(cur, t+h)
	combine(m, cur, next, h, rkTerm{k1, dpB1}, rkTerm{k3, dpB3}, rkTerm{k4, dpB4}, rkTerm{k5, dpB5}, rkTerm{k6, dpB6})

	res7, err := step.EvaluateTrial(m, next, t+h, h)
	if err != nil {
		return nil, 0, err
	}
	k7 := res7.Derivatives

	errNorm := 0.0
	for _, name := range names {
		v, _ := cur.Stock(name)
		y5, _ := next.Stock(name)
		y4 := v + h*(dpA1*k1[name]+dpA3*k3[name]+dpA4*k4[name]+dpA5*k5[name]+dpA6*k6[name]+dpA7*k7[name])
		scale := absTol + relTol*math.Max(math.Abs(y4), math.Abs(y5))
		if scale == 0 {
			scale = absTol
		}
		if e := math.Abs(y5-y4) / scale; e > errNorm {
			errNorm = e
		}
	}

	return next, errNorm, nil
}
