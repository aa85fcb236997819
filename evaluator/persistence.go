package evaluator

import (
	"fmt"

	"scalper/shared"
)

// PersistenceFilter suppresses a directional signal until it has recurred a
// minimum number of times within a sliding window of recent raw signals.
// It is owned by a single evaluation worker and is not safe for concurrent
// use.
type PersistenceFilter struct {
	window  []shared.RawSignal
	size    int
	minimum int
	start   int
	count   int
}

// NewPersistenceFilter initializes the filter with the provided window size
// and recurrence minimum.
func NewPersistenceFilter(size int, minimum int) (*PersistenceFilter, error) {
	if size < 1 {
		return nil, fmt.Errorf("persistence window size must be positive, got %d", size)
	}
	if minimum < 1 || minimum > size {
		return nil, fmt.Errorf("persistence minimum %d outside window size %d", minimum, size)
	}

	return &PersistenceFilter{
		window:  make([]shared.RawSignal, size),
		size:    size,
		minimum: minimum,
	}, nil
}

// Apply records the provided raw signal and reports whether it has now
// recurred at least the configured minimum number of times within the window,
// the freshly recorded sample included. A none signal is recorded but always
// suppressed.
func (f *PersistenceFilter) Apply(signal shared.RawSignal) bool {
	if f.count == f.size {
		f.window[f.start] = signal
		f.start = (f.start + 1) % f.size
	} else {
		f.window[(f.start+f.count)%f.size] = signal
		f.count++
	}

	if signal == shared.RawNone {
		return false
	}

	occurrences := 0
	for idx := 0; idx < f.count; idx++ {
		if f.window[(f.start+idx)%f.size] == signal {
			occurrences++
		}
	}

	return occurrences >= f.minimum
}

// Reset clears the filter's signal history.
func (f *PersistenceFilter) Reset() {
	f.start = 0
	f.count = 0
}
