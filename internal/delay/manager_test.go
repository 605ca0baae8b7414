package delay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerDelay1SeparateFromSmooth(t *testing.T) {
	m := NewManager()
	a := m.Delay1("site-a", 1, 1, 0, 0.1)
	b := m.Smooth("site-b", 1, 1, 0, 0.1)
	assert.Equal(t, a, b, "identical parameters at different call sites converge to the same value on the first step")
	assert.Len(t, m.exponential, 2, "Delay1 and Smooth keep independent per-call-site instances")
}

func TestManagerCloneIsIndependent(t *testing.T) {
	m := NewManager()
	m.Delay1("site", 1, 1, 0, 0.1)

	clone := m.Clone()
	clone.Delay1("site", 1, 1, 0, 0.1)

	assert.NotEqual(t, m.exponential["site"].Stages[0], clone.exponential["site"].Stages[0])
}

func TestManagerDelayPGetsOrCreates(t *testing.T) {
	m := NewManager()
	v1 := m.DelayP("site", 5, 1, 0, 0)
	v2 := m.DelayP("site", 5, 1, 0, 0.5)
	assert.Equal(t, float64(0), v1)
	assert.Equal(t, float64(0), v2)
	assert.Len(t, m.pipeline, 1)
}
