package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalStr(t *testing.T, expr string, ctx Context) float64 {
	t.Helper()
	e, err := Parse(expr)
	require.NoError(t, err)
	v, err := Evaluate(e, ctx)
	require.NoError(t, err)
	return v
}

func TestPureFunctions(t *testing.T) {
	ctx := newFakeContext()
	cases := []struct {
		expr string
		want float64
	}{
		{"MIN(3, 1, 2)", 1},
		{"MAX(3, 1, 2)", 3},
		{"ABS(-4)", 4},
		{"SQRT(9)", 3},
		{"FLOOR(2.7)", 2},
		{"CEIL(2.1)", 3},
		{"ROUND(2.5)", 3},
		{"MODULO(7, 3)", 1},
		{"POW(2, 10)", 1024},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			assert.InDelta(t, tc.want, evalStr(t, tc.expr, ctx), 1e-9)
		})
	}
}

func TestSqrtDomainError(t *testing.T) {
	e, err := Parse("SQRT(-1)")
	require.NoError(t, err)
	_, err = Evaluate(e, newFakeContext())
	require.Error(t, err)
	var fe *FunctionError
	require.ErrorAs(t, err, &fe)
	var de *DomainError
	assert.ErrorAs(t, err, &de)
}

func TestPulseAccumulation(t *testing.T) {
	ctx := newFakeContext()
	e, err := Parse("PULSE(1, 2)")
	require.NoError(t, err)

	var total float64
	for tt := 0.0; tt < 5; tt++ {
		ctx.time = tt
		v, err := Evaluate(e, ctx)
		require.NoError(t, err)
		total += v
	}
	assert.Equal(t, float64(2), total, "PULSE(start=1,width=2) fires at t=1 and t=2")
}

func TestStepFunction(t *testing.T) {
	ctx := newFakeContext()
	e, err := Parse("STEP(5, 3)")
	require.NoError(t, err)

	ctx.time = 2
	v, _ := Evaluate(e, ctx)
	assert.Equal(t, float64(0), v)

	ctx.time = 3
	v, _ = Evaluate(e, ctx)
	assert.Equal(t, float64(5), v)
}

func TestWithLookupInline(t *testing.T) {
	ctx := newFakeContext()
	v := evalStr(t, "WITH_LOOKUP(0.5, 0, 0, 1, 10)", ctx)
	assert.InDelta(t, 5, v, 1e-9)
}

func TestNamedLookup(t *testing.T) {
	table, err := NewLookupTable("Growth", [][2]float64{{0, 0}, {1, 10}, {2, 5}})
	require.NoError(t, err)
	ctx := newFakeContext()
	ctx.tables["Growth"] = table

	v := evalStr(t, "LOOKUP(Growth, 0.5)", ctx)
	assert.InDelta(t, 5, v, 1e-9)

	v = evalStr(t, "LOOKUP(Growth, 1.5)", ctx)
	assert.InDelta(t, 7.5, v, 1e-9)
}

func TestUnknownFunction(t *testing.T) {
	e, err := Parse("BOGUS(1)")
	require.NoError(t, err)
	_, err = Evaluate(e, newFakeContext())
	require.Error(t, err)
	var unk *UnknownFunctionError
	assert.ErrorAs(t, err, &unk)
}
