package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArithmetic(t *testing.T) {
	cases := []struct {
		name string
		expr string
		ctx  *fakeContext
		want float64
	}{
		{"add", "1 + 2", newFakeContext(), 3},
		{"precedence", "2 + 3 * 4", newFakeContext(), 14},
		{"parens", "(2 + 3) * 4", newFakeContext(), 20},
		{"unary minus", "-5 + 2", newFakeContext(), -3},
		{"power", "2 ^ 3", newFakeContext(), 8},
		{"comparison", "3 > 2", newFakeContext(), 1},
		{"not equal true", "3 <> 2", newFakeContext(), 1},
		{"not equal false", "3 <> 3", newFakeContext(), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Parse(tc.expr)
			require.NoError(t, err)
			v, err := Evaluate(e, tc.ctx)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, v, 1e-9)
		})
	}
}

func TestParseConditional(t *testing.T) {
	e, err := Parse("IF Rate > 0 THEN 1 ELSE -1")
	require.NoError(t, err)

	ctx := newFakeContext()
	ctx.params["Rate"] = 5
	v, err := Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v)

	ctx.params["Rate"] = -5
	v, err = Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(-1), v)
}

func TestParseVariableResolutionOrder(t *testing.T) {
	ctx := newFakeContext()
	ctx.params["X"] = 1
	ctx.stocks["X"] = 2

	e, err := Parse("X")
	require.NoError(t, err)
	v, err := Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v, "parameter must win over a stock of the same name")
}

func TestParseUnknownVariable(t *testing.T) {
	e, err := Parse("Ghost")
	require.NoError(t, err)
	_, err = Evaluate(e, newFakeContext())
	require.Error(t, err)
	var unk *UnknownVariableError
	assert.ErrorAs(t, err, &unk)
}

func TestParseEmptyExpression(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

// fakeContext is a minimal in-memory Context for expression tests that
// do not need delay or stochastic primitives.
type fakeContext struct {
	time    float64
	dt      float64
	params  map[string]float64
	stocks  map[string]float64
	flows   map[string]float64
	auxs    map[string]float64
	tables  map[string]*LookupTable
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		dt:     1,
		params: map[string]float64{},
		stocks: map[string]float64{},
		flows:  map[string]float64{},
		auxs:   map[string]float64{},
		tables: map[string]*LookupTable{},
	}
}

func (c *fakeContext) Time() float64 { return c.time }
func (c *fakeContext) Dt() float64   { return c.dt }
func (c *fakeContext) Parameter(name string) (float64, bool) { v, ok := c.params[name]; return v, ok }
func (c *fakeContext) Stock(name string) (float64, bool)     { v, ok := c.stocks[name]; return v, ok }
func (c *fakeContext) Flow(name string) (float64, bool)       { v, ok := c.flows[name]; return v, ok }
func (c *fakeContext) Auxiliary(name string) (float64, bool)  { v, ok := c.auxs[name]; return v, ok }
func (c *fakeContext) Table(name string) (*LookupTable, bool) { t, ok := c.tables[name]; return t, ok }
func (c *fakeContext) CallSiteID(call *FunctionCall) string   { return CallSiteKey(call.Name, call.Args) }
func (c *fakeContext) Delays() DelayRegistry                  { return nil }
func (c *fakeContext) Stochastic() StochasticRegistry         { return nil }
