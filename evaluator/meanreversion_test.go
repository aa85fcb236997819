package evaluator

import (
	"testing"

	"github.com/peterldowns/testy/assert"

	"scalper/shared"
)

func meanReversionTestConfig() *MeanReversionConfig {
	return &MeanReversionConfig{
		BandsPeriod:     20,
		BandsMultiplier: 2,
		RSIPeriod:       14,
		Oversold:        30,
		Overbought:      70,
	}
}

func TestMeanReversionConfigValidate(t *testing.T) {
	// Ensure the overbought level must exceed the oversold level.
	cfg := meanReversionTestConfig()
	cfg.Overbought = 20
	assert.Error(t, cfg.Validate())

	// Ensure the bands multiplier must be positive.
	cfg = meanReversionTestConfig()
	cfg.BandsMultiplier = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, meanReversionTestConfig().Validate())
}

// reversionData builds candle data from a base series and trailing closes.
func reversionData(tail ...float64) *CandleData {
	closes := make([]float64, 0, 20+len(tail))
	for idx := 0; idx < 20; idx++ {
		closes = append(closes, 10)
	}
	closes = append(closes, tail...)

	return crossData(closes)
}

func TestMeanReversionEvaluate(t *testing.T) {
	eval, err := NewMeanReversion(meanReversionTestConfig())
	assert.NoError(t, err)
	assert.Equal(t, eval.Name(), MeanReversionName)

	// Ensure insufficient history yields a pending note.
	note := eval.Evaluate(crossData([]float64{10, 10, 10}))
	assert.True(t, note.IsPending())

	// A sharp drop below the lower band with the rsi turning up from
	// oversold signals a reversion long.
	note = eval.Evaluate(reversionData(5, 5.1))
	assert.Equal(t, note.Signal(), shared.RawLong)

	// Ensure a spike above the upper band with the rsi turning down from
	// overbought signals a reversion short.
	note = eval.Evaluate(reversionData(15, 14.9))
	assert.Equal(t, note.Signal(), shared.RawShort)

	// Ensure a flat market yields no signal.
	note = eval.Evaluate(reversionData(10, 10))
	assert.Equal(t, note.Signal(), shared.RawNone)
}
