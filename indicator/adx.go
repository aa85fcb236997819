package indicator

import (
	"fmt"
	"math"
)

// ADX computes the average directional index of the provided series using
// Wilder's smoothing for the directional movements and for the DX values.
// The computation needs 2*period+1 samples to produce its first value; the
// output holds len(close)-2*period+1 values aligned to the tail of the input.
func ADX(high []float64, low []float64, close []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("adx period must be positive: %d", period)
	}
	if len(high) != len(low) || len(high) != len(close) {
		return nil, fmt.Errorf("adx series length mismatch: high %d, low %d, close %d",
			len(high), len(low), len(close))
	}
	if len(close) < 2*period+1 {
		return nil, fmt.Errorf("%w: adx requires at least %d samples, got %d",
			ErrInsufficientData, 2*period+1, len(close))
	}

	// Smoothed true range and directional movements, seeded with plain sums
	// over the first period.
	var smoothTR, smoothPlusDM, smoothMinusDM float64
	for idx := 1; idx <= period; idx++ {
		tr, plusDM, minusDM := directionalMovement(high, low, close, idx)
		smoothTR += tr
		smoothPlusDM += plusDM
		smoothMinusDM += minusDM
	}

	dx := make([]float64, 0, len(close)-period)
	dx = append(dx, dxValue(smoothPlusDM, smoothMinusDM, smoothTR))

	for idx := period + 1; idx < len(close); idx++ {
		tr, plusDM, minusDM := directionalMovement(high, low, close, idx)
		smoothTR = smoothTR - smoothTR/float64(period) + tr
		smoothPlusDM = smoothPlusDM - smoothPlusDM/float64(period) + plusDM
		smoothMinusDM = smoothMinusDM - smoothMinusDM/float64(period) + minusDM
		dx = append(dx, dxValue(smoothPlusDM, smoothMinusDM, smoothTR))
	}

	// The adx is a Wilder smoothing of the dx series.
	var sum float64
	for idx := range period {
		sum += dx[idx]
	}
	prev := sum / float64(period)

	out := make([]float64, 0, len(dx)-period+1)
	out = append(out, prev)

	for idx := period; idx < len(dx); idx++ {
		prev = (prev*float64(period-1) + dx[idx]) / float64(period)
		out = append(out, prev)
	}

	return out, nil
}

// directionalMovement returns the true range and directional movements at the
// provided index.
func directionalMovement(high []float64, low []float64, close []float64, idx int) (float64, float64, float64) {
	upMove := high[idx] - high[idx-1]
	downMove := low[idx-1] - low[idx]

	var plusDM, minusDM float64
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}

	return trueRange(high[idx], low[idx], close[idx-1]), plusDM, minusDM
}

// dxValue derives a dx value from the provided smoothed directional movements
// and true range.
func dxValue(smoothPlusDM float64, smoothMinusDM float64, smoothTR float64) float64 {
	if smoothTR == 0 {
		return 0
	}

	plusDI := 100 * smoothPlusDM / smoothTR
	minusDI := 100 * smoothMinusDM / smoothTR

	sum := plusDI + minusDI
	if sum == 0 {
		return 0
	}

	return 100 * math.Abs(plusDI-minusDI) / sum
}
