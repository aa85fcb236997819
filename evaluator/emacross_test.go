package evaluator

import (
	"testing"

	"github.com/peterldowns/testy/assert"

	"scalper/shared"
)

func emaCrossTestConfig() *EMACrossConfig {
	return &EMACrossConfig{
		FastPeriod:       3,
		SlowPeriod:       5,
		PctThreshold:     0.25,
		ATRPeriod:        2,
		MomentumLookback: 5,
		MinSlope:         0.001,
	}
}

// crossData builds candle data from closes with a one point range per candle.
func crossData(closes []float64) *CandleData {
	high := make([]float64, len(closes))
	low := make([]float64, len(closes))
	volume := make([]float64, len(closes))
	for idx := range closes {
		high[idx] = closes[idx] + 1
		low[idx] = closes[idx] - 1
		volume[idx] = 1
	}

	return &CandleData{Close: closes, High: high, Low: low, Volume: volume}
}

// rangedCrossData builds candle data from closes with a configurable range
// per candle.
func rangedCrossData(closes []float64, span float64) *CandleData {
	high := make([]float64, len(closes))
	low := make([]float64, len(closes))
	volume := make([]float64, len(closes))
	for idx := range closes {
		high[idx] = closes[idx] + span
		low[idx] = closes[idx] - span
		volume[idx] = 1
	}

	return &CandleData{Close: closes, High: high, Low: low, Volume: volume}
}

func TestEMACrossConfigValidate(t *testing.T) {
	// Ensure the slow period must exceed the fast period.
	cfg := emaCrossTestConfig()
	cfg.SlowPeriod = 2
	assert.Error(t, cfg.Validate())

	// Ensure periods must be positive.
	cfg = emaCrossTestConfig()
	cfg.FastPeriod = 0
	assert.Error(t, cfg.Validate())

	cfg = emaCrossTestConfig()
	cfg.ATRPeriod = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, emaCrossTestConfig().Validate())
}

func TestEMACrossEvaluate(t *testing.T) {
	eval, err := NewEMACross(emaCrossTestConfig())
	assert.NoError(t, err)
	assert.Equal(t, eval.Name(), EMACrossName)

	// Ensure insufficient history yields a pending note.
	note := eval.Evaluate(crossData([]float64{100, 100, 100}))
	assert.True(t, note.IsPending())

	// Ensure a flat market yields no signal via the slope filter.
	note = eval.Evaluate(crossData([]float64{100, 100, 100, 100, 100, 100, 100, 100}))
	assert.False(t, note.IsPending())
	assert.Equal(t, note.Signal(), shared.RawNone)

	// A sustained level shift separates the fast and slow averages beyond
	// the volatility threshold with rising momentum.
	shift := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
		200, 200, 200, 200, 200}
	note = eval.Evaluate(crossData(shift))
	assert.Equal(t, note.Signal(), shared.RawLong)

	// Ensure the reverse flag flips the emitted direction.
	cfg := emaCrossTestConfig()
	cfg.Reverse = true
	reversed, err := NewEMACross(cfg)
	assert.NoError(t, err)
	note = reversed.Evaluate(crossData(shift))
	assert.Equal(t, note.Signal(), shared.RawShort)
}

func TestEMACrossDynamicThreshold(t *testing.T) {
	shift := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
		200, 200, 200, 200, 200}

	// Ensure the separation clears the threshold while the true range stays
	// tight relative to price.
	eval, err := NewEMACross(emaCrossTestConfig())
	assert.NoError(t, err)
	note := eval.Evaluate(rangedCrossData(shift, 0.5))
	assert.Equal(t, note.Signal(), shared.RawLong)

	// Ensure a widening true range raises the threshold past the same
	// separation, landing it in the no-trade zone.
	note = eval.Evaluate(rangedCrossData(shift, 8))
	assert.Equal(t, note.Signal(), shared.RawNone)

	// Ensure the percentage threshold floors the dynamic threshold even when
	// the true range is tight.
	cfg := emaCrossTestConfig()
	cfg.PctThreshold = 10
	floored, err := NewEMACross(cfg)
	assert.NoError(t, err)
	note = floored.Evaluate(rangedCrossData(shift, 0.5))
	assert.Equal(t, note.Signal(), shared.RawNone)
}
