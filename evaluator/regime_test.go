package evaluator

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func rangeRegimeTestConfig() *RangeRegimeConfig {
	return &RangeRegimeConfig{
		EMAPeriod:         5,
		ADXPeriod:         3,
		ADXThreshold:      20,
		SlopeThresholdPct: 2,
	}
}

func TestRangeRegimeConfigValidate(t *testing.T) {
	// Ensure the adx threshold must be within (0, 100).
	cfg := rangeRegimeTestConfig()
	cfg.ADXThreshold = 100
	assert.Error(t, cfg.Validate())

	// Ensure the slope threshold must be positive.
	cfg = rangeRegimeTestConfig()
	cfg.SlopeThresholdPct = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, rangeRegimeTestConfig().Validate())
}

func TestRangeRegimeEvaluate(t *testing.T) {
	eval, err := NewRangeRegime(rangeRegimeTestConfig())
	assert.NoError(t, err)
	assert.Equal(t, eval.Name(), RangeRegimeName)

	// Ensure insufficient history yields a pending note.
	note := eval.Evaluate(crossData([]float64{100, 100, 100}))
	assert.True(t, note.IsPending())

	rising := make([]float64, 10)
	flat := make([]float64, 10)
	for idx := range rising {
		rising[idx] = float64(idx + 1)
		flat[idx] = 100
	}

	// Ensure a flat market classifies as ranging.
	note = eval.Evaluate(crossData(flat))
	assert.Equal(t, note.Value(), 1.0)

	// Ensure a steady trend classifies as trending.
	note = eval.Evaluate(crossData(rising))
	assert.Equal(t, note.Value(), 0.0)
}
