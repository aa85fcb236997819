package evaluator

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func pullbackTestConfig() *PullbackConfig {
	return &PullbackConfig{
		EMAPeriod:             20,
		PullbackDepth:         0.3,
		RecentChangeThreshold: 2,
		VolumeMultiplier:      1,
	}
}

// pullbackData builds candle data from a geometric trend of the provided
// growth rate, ending with a single counter-trend move. The final candle
// carries elevated volume.
func pullbackData(growth float64, counterMove float64) *CandleData {
	closes := make([]float64, 26)
	closes[0] = 100
	for idx := 1; idx < 25; idx++ {
		closes[idx] = closes[idx-1] * growth
	}
	closes[25] = closes[24] * counterMove

	data := crossData(closes)
	data.Volume[25] = 2

	return data
}

func TestPullbackConfigValidate(t *testing.T) {
	// Ensure the pullback depth must be positive.
	cfg := pullbackTestConfig()
	cfg.PullbackDepth = 0
	assert.Error(t, cfg.Validate())

	// Ensure the volume multiplier must be positive.
	cfg = pullbackTestConfig()
	cfg.VolumeMultiplier = -1
	assert.Error(t, cfg.Validate())

	assert.NoError(t, pullbackTestConfig().Validate())
}

func TestPullbackEvaluate(t *testing.T) {
	eval, err := NewPullback(pullbackTestConfig())
	assert.NoError(t, err)
	assert.Equal(t, eval.Name(), PullbackName)

	// Ensure insufficient history yields a pending note.
	note := eval.Evaluate(crossData([]float64{100, 101, 102}))
	assert.True(t, note.IsPending())

	// A sharp volume-confirmed dip within a steady uptrend scores long in
	// proportion to the size of the retracement.
	dip := pullbackData(1.01, 0.85)
	price := dip.Close[25]
	anchor := dip.Close[20]
	strength := math.Min(1, math.Abs((price-anchor)/anchor*100)/100)
	note = eval.Evaluate(dip)
	assert.Equal(t, note.Value(), strength)

	// Ensure a volume-confirmed rally within a downtrend scores short.
	rally := pullbackData(0.99, 1.15)
	price = rally.Close[25]
	anchor = rally.Close[20]
	strength = math.Min(1, math.Abs((price-anchor)/anchor*100)/100)
	note = eval.Evaluate(rally)
	assert.Equal(t, note.Value(), -strength)

	// Ensure a steady trend without a retracement scores neutral.
	note = eval.Evaluate(pullbackData(1.01, 1.01))
	assert.Equal(t, note.Value(), 0.0)
}
