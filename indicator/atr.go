package indicator

import (
	"fmt"
	"math"
)

// trueRange returns the true range of a candle given the previous close.
func trueRange(high float64, low float64, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

// ATR computes the average true range of the provided series using Wilder's
// smoothing. The output holds len(close)-period values aligned to the tail of
// the input.
func ATR(high []float64, low []float64, close []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("atr period must be positive: %d", period)
	}
	if len(high) != len(low) || len(high) != len(close) {
		return nil, fmt.Errorf("atr series length mismatch: high %d, low %d, close %d",
			len(high), len(low), len(close))
	}
	if len(close) < period+1 {
		return nil, fmt.Errorf("%w: atr requires at least %d samples, got %d",
			ErrInsufficientData, period+1, len(close))
	}

	// Seed the average with a simple mean of the first period true ranges.
	var sum float64
	for idx := 1; idx <= period; idx++ {
		sum += trueRange(high[idx], low[idx], close[idx-1])
	}
	prev := sum / float64(period)

	out := make([]float64, 0, len(close)-period)
	out = append(out, prev)

	for idx := period + 1; idx < len(close); idx++ {
		tr := trueRange(high[idx], low[idx], close[idx-1])
		prev = (prev*float64(period-1) + tr) / float64(period)
		out = append(out, prev)
	}

	return out, nil
}
