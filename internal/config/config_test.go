package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: growth
description: exponential growth test fixture
time:
  start: 0
  stop: 1
  dt: 1
  units: years
parameters:
  - name: r
    value: 0.1
stocks:
  - name: Population
    initial: "100"
    inflows: [growth]
    non_negative: true
flows:
  - name: growth
    equation: "Population * r"
run:
  method: euler
  output_interval: 0
`

func TestParseModelFileReadsFields(t *testing.T) {
	mf, err := ParseModelFile(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "growth", mf.Name)
	assert.Equal(t, float64(1), mf.Time.Stop)
	require.Len(t, mf.Parameters, 1)
	assert.Equal(t, "r", mf.Parameters[0].Name)
	require.Len(t, mf.Stocks, 1)
	assert.Equal(t, "Population", mf.Stocks[0].Name)
	assert.True(t, mf.Stocks[0].NonNegative)
}

func TestBuildConstructsRunnableModel(t *testing.T) {
	mf, err := ParseModelFile(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	m, cfg, err := mf.Build()
	require.NoError(t, err)

	assert.Equal(t, "euler", string(cfg.Method))
	_, ok := m.Stock("Population")
	assert.True(t, ok)
	_, ok = m.Flow("growth")
	assert.True(t, ok)
}

func TestBuildRejectsBadEquation(t *testing.T) {
	bad := strings.Replace(sampleYAML, `"Population * r"`, `"Population *"`, 1)
	mf, err := ParseModelFile(strings.NewReader(bad))
	require.NoError(t, err)

	_, _, err = mf.Build()
	assert.Error(t, err)
}

func TestParseModelFileRejectsMalformedYAML(t *testing.T) {
	_, err := ParseModelFile(strings.NewReader("name: [unterminated"))
	assert.Error(t, err)
}
