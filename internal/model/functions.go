package model

import (
	"math"
	"strings"
)

// evalFunction dispatches a FunctionCall by case-insensitive name
// (function library).
func evalFunction(call *FunctionCall, ctx Context) (float64, error) {
	name := strings.ToUpper(call.Name)

	// TIME() takes no arguments and never evaluates arguments, so it
	// is dispatched before the generic argument-evaluation below.
	if name == "TIME" {
		if len(call.Args) != 0 {
			return 0, &FunctionError{Name: call.Name, Err: &ArityMismatchError{Name: call.Name, Got: len(call.Args), Expected: "0"}}
		}
		return ctx.Time(), nil
	}

	// LOOKUP's first argument names a table, not a variable, so only its
	// x argument is evaluated.
	if name == "LOOKUP" {
		args := make([]float64, len(call.Args))
		if len(call.Args) == 2 {
			x, err := Evaluate(call.Args[1], ctx)
			if err != nil {
				return 0, err
			}
			args[1] = x
		}
		return dispatchPure(name, call, args, ctx)
	}

	switch name {
	case "MIN", "MAX", "ABS", "SQRT", "EXP", "LN", "LOG", "LOG10",
		"SIN", "COS", "TAN", "ASIN", "ACOS", "ATAN",
		"FLOOR", "CEIL", "ROUND", "POW", "MODULO", "MOD",
		"PULSE", "STEP", "RAMP", "WITH_LOOKUP",
		"RANDOM", "UNIFORM", "NORMAL", "LOGNORMAL", "POISSON":
		args, err := evalArgs(call.Args, ctx)
		if err != nil {
			return 0, err
		}
		return dispatchPure(name, call, args, ctx)

	case "DELAY1", "DELAY3", "DELAYP", "SMOOTH", "WHITE_NOISE", "PINK_NOISE", "PINK_NOISE_HQ":
		return dispatchStateful(name, call, ctx)
	}

	return 0, &UnknownFunctionError{Name: call.Name}
}

func evalArgs(exprs []Expr, ctx Context) ([]float64, error) {
	out := make([]float64, len(exprs))
	for i, e := range exprs {
		v, err := Evaluate(e, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func arity(name string, args []float64, want int) error {
	if len(args) != want {
		return &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: len(args), Expected: itoa(want)}}
	}
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func dispatchPure(name string, call *FunctionCall, args []float64, ctx Context) (float64, error) {
	switch name {
	case "MIN":
		if len(args) < 1 {
			return 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: 0, Expected: ">=1"}}
		}
		m := args[0]
		for _, v := range args[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	case "MAX":
		if len(args) < 1 {
			return 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: 0, Expected: ">=1"}}
		}
		m := args[0]
		for _, v := range args[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	case "ABS":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Abs(args[0]), nil
	case "SQRT":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		if args[0] < 0 {
			return 0, &FunctionError{Name: name, Err: &DomainError{Name: name, Value: args[0]}}
		}
		return math.Sqrt(args[0]), nil
	case "EXP":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Exp(args[0]), nil
	case "LN", "LOG":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		if args[0] <= 0 {
			return 0, &FunctionError{Name: name, Err: &DomainError{Name: name, Value: args[0]}}
		}
		return math.Log(args[0]), nil
	case "LOG10":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		if args[0] <= 0 {
			return 0, &FunctionError{Name: name, Err: &DomainError{Name: name, Value: args[0]}}
		}
		return math.Log10(args[0]), nil
	case "SIN":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Sin(args[0]), nil
	case "COS":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Cos(args[0]), nil
	case "TAN":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Tan(args[0]), nil
	case "ASIN":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Asin(args[0]), nil
	case "ACOS":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Acos(args[0]), nil
	case "ATAN":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Atan(args[0]), nil
	case "FLOOR":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Floor(args[0]), nil
	case "CEIL":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Ceil(args[0]), nil
	case "ROUND":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		return math.Round(args[0]), nil
	case "POW":
		if err := arity(name, args, 2); err != nil {
			return 0, err
		}
		return math.Pow(args[0], args[1]), nil
	case "MODULO", "MOD":
		if err := arity(name, args, 2); err != nil {
			return 0, err
		}
		if args[1] == 0 {
			return 0, &FunctionError{Name: name, Err: &DivByZeroError{Name: name}}
		}
		return math.Mod(args[0], args[1]), nil

	case "PULSE":
		return pulse(name, args, ctx.Time())
	case "STEP":
		if err := arity(name, args, 2); err != nil {
			return 0, err
		}
		if ctx.Time() >= args[1] {
			return args[0], nil
		}
		return 0, nil
	case "RAMP":
		return ramp(name, args, ctx.Time())

	case "WITH_LOOKUP":
		if len(args) < 3 || len(args)%2 != 1 {
			return 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: len(args), Expected: "odd, >=3"}}
		}
		table, err := LookupPoints(args[1:])
		if err != nil {
			return 0, &FunctionError{Name: name, Err: err}
		}
		return table.Lookup(args[0]), nil

	case "LOOKUP":
		// LOOKUP(table_name, x): resolved by the bare Variable node
		// naming the table directly in the call expression, not by
		// its evaluated value, since table names aren't variables.
		if len(call.Args) != 2 {
			return 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: len(call.Args), Expected: "2"}}
		}
		tableName, ok := tableNameArg(call.Args[0])
		if !ok {
			return 0, &FunctionError{Name: name, Err: &ParseError{Message: "LOOKUP requires a table name as the first argument"}}
		}
		table, ok := ctx.Table(tableName)
		if !ok {
			return 0, &FunctionError{Name: name, Err: &UnknownVariableError{Name: tableName}}
		}
		return table.Lookup(args[1]), nil

	case "RANDOM":
		if err := arity(name, args, 0); err != nil {
			return 0, err
		}
		return ctx.Stochastic().Random(), nil
	case "UNIFORM":
		if err := arity(name, args, 2); err != nil {
			return 0, err
		}
		return ctx.Stochastic().Uniform(args[0], args[1]), nil
	case "NORMAL":
		if err := arity(name, args, 2); err != nil {
			return 0, err
		}
		v, err := ctx.Stochastic().Normal(args[0], args[1])
		if err != nil {
			return 0, &FunctionError{Name: name, Err: err}
		}
		return v, nil
	case "LOGNORMAL":
		if err := arity(name, args, 2); err != nil {
			return 0, err
		}
		v, err := ctx.Stochastic().LogNormal(args[0], args[1])
		if err != nil {
			return 0, &FunctionError{Name: name, Err: err}
		}
		return v, nil
	case "POISSON":
		if err := arity(name, args, 1); err != nil {
			return 0, err
		}
		if args[0] <= 0 {
			return 0, &FunctionError{Name: name, Err: &DomainError{Name: name, Value: args[0]}}
		}
		v, err := ctx.Stochastic().Poisson(args[0])
		if err != nil {
			return 0, &FunctionError{Name: name, Err: err}
		}
		return v, nil
	}
	return 0, &UnknownFunctionError{Name: name}
}

func tableNameArg(e Expr) (string, bool) {
	if v, ok := e.(*Variable); ok {
		return v.Name, true
	}
	return "", false
}

func pulse(name string, args []float64, t float64) (float64, error) {
	switch len(args) {
	case 2:
		start, width := args[0], args[1]
		if t >= start && t < start+width {
			return 1.0, nil
		}
		return 0.0, nil
	case 3:
		start, width, period := args[0], args[1], args[2]
		if period <= 0 {
			return 0, &FunctionError{Name: name, Err: &DomainError{Name: name, Value: period}}
		}
		if t < start {
			return 0.0, nil
		}
		phase := math.Mod(t-start, period)
		if phase < width {
			return 1.0, nil
		}
		return 0.0, nil
	}
	return 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: len(args), Expected: "2 or 3"}}
}

func ramp(name string, args []float64, t float64) (float64, error) {
	switch len(args) {
	case 2:
		slope, t0 := args[0], args[1]
		if t < t0 {
			return 0, nil
		}
		return slope * (t - t0), nil
	case 3:
		slope, t0, t1 := args[0], args[1], args[2]
		if t < t0 {
			return 0, nil
		}
		if t >= t1 {
			return slope * (t1 - t0), nil
		}
		return slope * (t - t0), nil
	}
	return 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: len(args), Expected: "2 or 3"}}
}

// dispatchStateful handles the delay/noise functions that must consult
// the call-site-keyed primitive registries rather than pure math.
func dispatchStateful(name string, call *FunctionCall, ctx Context) (float64, error) {
	key := ctx.CallSiteID(call)
	dt := ctx.Dt()

	switch name {
	case "DELAY1":
		input, tau, initial, err := delayArgs(name, call.Args, ctx, 2, 3)
		if err != nil {
			return 0, err
		}
		return ctx.Delays().Delay1(key, input, tau, initial, dt), nil
	case "SMOOTH":
		input, tau, initial, err := delayArgs(name, call.Args, ctx, 2, 3)
		if err != nil {
			return 0, err
		}
		return ctx.Delays().Smooth(key, input, tau, initial, dt), nil
	case "DELAY3":
		input, tau, initial, err := delayArgs(name, call.Args, ctx, 2, 3)
		if err != nil {
			return 0, err
		}
		return ctx.Delays().Delay3(key, input, tau, initial, dt), nil
	case "DELAYP":
		if len(call.Args) != 3 {
			return 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: len(call.Args), Expected: "3"}}
		}
		input, err := Evaluate(call.Args[0], ctx)
		if err != nil {
			return 0, err
		}
		tau, err := Evaluate(call.Args[1], ctx)
		if err != nil {
			return 0, err
		}
		initial, err := Evaluate(call.Args[2], ctx)
		if err != nil {
			return 0, err
		}
		return ctx.Delays().DelayP(key, input, tau, initial, ctx.Time()), nil
	case "WHITE_NOISE":
		mean, std, err := twoArgs(name, call.Args, ctx)
		if err != nil {
			return 0, err
		}
		return ctx.Stochastic().WhiteNoise(key, mean, std, dt), nil
	case "PINK_NOISE":
		amplitude, offset, err := twoArgs(name, call.Args, ctx)
		if err != nil {
			return 0, err
		}
		return ctx.Stochastic().PinkNoise(key, amplitude, offset), nil
	case "PINK_NOISE_HQ":
		amplitude, offset, err := twoArgs(name, call.Args, ctx)
		if err != nil {
			return 0, err
		}
		return ctx.Stochastic().PinkNoiseHQ(key, amplitude, offset), nil
	}
	return 0, &UnknownFunctionError{Name: name}
}

func delayArgs(name string, args []Expr, ctx Context, minArgs, maxArgs int) (input, tau, initial float64, err error) {
	if len(args) < minArgs || len(args) > maxArgs {
		return 0, 0, 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: len(args), Expected: "2 or 3"}}
	}
	input, err = Evaluate(args[0], ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	tau, err = Evaluate(args[1], ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	initial = input
	if len(args) == 3 {
		initial, err = Evaluate(args[2], ctx)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return input, tau, initial, nil
}

// twoArgs evaluates the two positional arguments shared by WHITE_NOISE
// (mean, std) and PINK_NOISE/PINK_NOISE_HQ (amplitude, offset).
func twoArgs(name string, args []Expr, ctx Context) (a, b float64, err error) {
	if len(args) != 2 {
		return 0, 0, &FunctionError{Name: name, Err: &ArityMismatchError{Name: name, Got: len(args), Expected: "2"}}
	}
	a, err = Evaluate(args[0], ctx)
	if err != nil {
		return 0, 0, err
	}
	b, err = Evaluate(args[1], ctx)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
