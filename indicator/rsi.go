package indicator

import "fmt"

// RSI computes the relative strength index of the provided series using
// Wilder's smoothing. The output holds len(series)-period values aligned to
// the tail of the input.
func RSI(series []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("rsi period must be positive: %d", period)
	}
	if len(series) < period+1 {
		return nil, fmt.Errorf("%w: rsi requires at least %d samples, got %d",
			ErrInsufficientData, period+1, len(series))
	}

	// Seed the average gain and loss with a simple average of the first
	// period deltas.
	var avgGain, avgLoss float64
	for idx := 1; idx <= period; idx++ {
		delta := series[idx] - series[idx-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(series)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for idx := period + 1; idx < len(series); idx++ {
		delta := series[idx] - series[idx-1]

		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}

	return out, nil
}

// rsiValue derives an rsi value from the provided smoothed gain and loss.
func rsiValue(avgGain float64, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
