package indicator

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestRSI(t *testing.T) {
	// Ensure the rsi period must be positive.
	_, err := RSI([]float64{1, 2, 3}, 0)
	assert.Error(t, err)

	// Ensure insufficient data errors.
	_, err = RSI([]float64{1, 2}, 2)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	// A strictly rising series pins the index at 100.
	out, err := RSI([]float64{1, 2, 3, 4, 5}, 2)
	assert.NoError(t, err)
	assert.Equal(t, out, []float64{100, 100, 100})

	// A strictly falling series pins the index at 0.
	out, err = RSI([]float64{5, 4, 3, 2, 1}, 2)
	assert.NoError(t, err)
	assert.Equal(t, out, []float64{0, 0, 0})
}
