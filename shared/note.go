package shared

import "math"

// RawSignal represents a discrete directional signal before persistence
// filtering is applied.
type RawSignal int8

const (
	RawNone  RawSignal = 0
	RawLong  RawSignal = 1
	RawShort RawSignal = -1
)

// Note represents a bounded directional score in [-1, 1] produced by one
// evaluation cycle. A pending note means the evaluator has not yet produced a
// value, which is distinct from an evaluated neutral score of zero.
type Note struct {
	value   float64
	pending bool
}

// PendingNote returns the pending evaluation note.
func PendingNote() Note {
	return Note{pending: true}
}

// NewNote initializes a note from the provided value, clamped to [-1, 1].
// A NaN value yields the pending note.
func NewNote(value float64) Note {
	if math.IsNaN(value) {
		return PendingNote()
	}

	return Note{value: math.Max(-1, math.Min(1, value))}
}

// NewSignalNote initializes a note from the provided raw signal.
func NewSignalNote(signal RawSignal) Note {
	return Note{value: float64(signal)}
}

// IsPending returns whether the note is the pending sentinel.
func (n Note) IsPending() bool {
	return n.pending
}

// Value returns the note's score. The score of a pending note is NaN.
func (n Note) Value() float64 {
	if n.pending {
		return math.NaN()
	}

	return n.value
}

// Signal returns the sign of the note's score as a raw signal. A pending
// note yields no signal.
func (n Note) Signal() RawSignal {
	switch {
	case n.pending:
		return RawNone
	case n.value > 0:
		return RawLong
	case n.value < 0:
		return RawShort
	default:
		return RawNone
	}
}
