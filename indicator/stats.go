package indicator

import (
	"fmt"
	"math"
)

// Mean returns the arithmetic mean of the provided series.
func Mean(series []float64) (float64, error) {
	if len(series) == 0 {
		return 0, fmt.Errorf("%w: mean requires at least one sample", ErrInsufficientData)
	}

	var sum float64
	for idx := range series {
		sum += series[idx]
	}

	return sum / float64(len(series)), nil
}

// StdDev returns the population standard deviation of the provided series.
func StdDev(series []float64) (float64, error) {
	mean, err := Mean(series)
	if err != nil {
		return 0, err
	}

	var sum float64
	for idx := range series {
		diff := series[idx] - mean
		sum += diff * diff
	}

	return math.Sqrt(sum / float64(len(series))), nil
}

// Slope returns the last-step change of the provided series normalized by its
// final value.
func Slope(series []float64) (float64, error) {
	if len(series) < 2 {
		return 0, fmt.Errorf("%w: slope requires at least two samples", ErrInsufficientData)
	}

	last := series[len(series)-1]
	if last == 0 {
		return 0, fmt.Errorf("cannot normalize slope by a zero value")
	}

	return (last - series[len(series)-2]) / last, nil
}
