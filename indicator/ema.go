package indicator

import "fmt"

// EMA computes the exponential moving average of the provided series. The
// first output value is seeded with the simple average of the first period
// samples, so the output holds len(series)-period+1 values aligned to the
// tail of the input and contains no warm-up NaNs.
func EMA(series []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("ema period must be positive: %d", period)
	}
	if len(series) < period+1 {
		return nil, fmt.Errorf("%w: ema requires at least %d samples, got %d",
			ErrInsufficientData, period+1, len(series))
	}

	seed, err := Mean(series[:period])
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, len(series)-period+1)
	out = append(out, seed)

	multiplier := 2 / (float64(period) + 1)
	prev := seed
	for idx := period; idx < len(series); idx++ {
		prev = (series[idx]-prev)*multiplier + prev
		out = append(out, prev)
	}

	return out, nil
}
