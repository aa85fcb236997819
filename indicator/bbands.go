package indicator

import "fmt"

// BollingerBands computes the lower, middle and upper bollinger bands of the
// provided series. The middle band is a simple moving average and the band
// distance is multiplier population standard deviations. Each output holds
// len(series)-period+1 values aligned to the tail of the input.
func BollingerBands(series []float64, period int, multiplier float64) ([]float64, []float64, []float64, error) {
	if period <= 0 {
		return nil, nil, nil, fmt.Errorf("bollinger band period must be positive: %d", period)
	}
	if multiplier <= 0 {
		return nil, nil, nil, fmt.Errorf("bollinger band multiplier must be positive: %f", multiplier)
	}
	if len(series) < period+1 {
		return nil, nil, nil, fmt.Errorf("%w: bollinger bands require at least %d samples, got %d",
			ErrInsufficientData, period+1, len(series))
	}

	size := len(series) - period + 1
	lower := make([]float64, 0, size)
	middle := make([]float64, 0, size)
	upper := make([]float64, 0, size)

	for idx := period; idx <= len(series); idx++ {
		window := series[idx-period : idx]

		mean, err := Mean(window)
		if err != nil {
			return nil, nil, nil, err
		}

		stddev, err := StdDev(window)
		if err != nil {
			return nil, nil, nil, err
		}

		lower = append(lower, mean-multiplier*stddev)
		middle = append(middle, mean)
		upper = append(upper, mean+multiplier*stddev)
	}

	return lower, middle, upper, nil
}
