package indicator

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestATR(t *testing.T) {
	high := []float64{2, 3, 4}
	low := []float64{1, 2, 3}
	close := []float64{1.5, 2.5, 3.5}

	// Ensure the atr period must be positive.
	_, err := ATR(high, low, close, 0)
	assert.Error(t, err)

	// Ensure mismatched series lengths error.
	_, err = ATR(high, low[:2], close, 1)
	assert.Error(t, err)

	// Ensure insufficient data errors.
	_, err = ATR(high[:1], low[:1], close[:1], 1)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	// Each candle gaps half a point beyond the prior close, so the true
	// range is constant at 1.5.
	out, err := ATR(high, low, close, 1)
	assert.NoError(t, err)
	assert.Equal(t, out, []float64{1.5, 1.5})
}
