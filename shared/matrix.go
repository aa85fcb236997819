package shared

import (
	"errors"
	"sync"
)

// ErrUnsetEvaluation is returned when an evaluator has not yet produced a
// note for the requested key. Callers must treat it as not-ready rather than
// a hard failure.
var ErrUnsetEvaluation = errors.New("evaluation not yet set")

// noteKey identifies an evaluator's note slot in the matrix.
type noteKey struct {
	exchange  string
	market    string
	timeframe Timeframe
	evaluator string
}

// Matrix holds the latest evaluation note per exchange, market, timeframe and
// evaluator. Writes for a market are serialized by the owning evaluation
// instance; reads always observe a consistent snapshot of a note slot.
type Matrix struct {
	notes    map[noteKey]Note
	notesMtx sync.RWMutex
}

// NewMatrix initializes a new note matrix.
func NewMatrix() *Matrix {
	return &Matrix{
		notes: make(map[noteKey]Note),
	}
}

// SetNote records the latest note for the provided key.
func (m *Matrix) SetNote(exchange string, market string, timeframe Timeframe,
	evaluator string, note Note) {
	key := noteKey{exchange: exchange, market: market, timeframe: timeframe, evaluator: evaluator}

	m.notesMtx.Lock()
	m.notes[key] = note
	m.notesMtx.Unlock()
}

// Note fetches the latest note for the provided key.
func (m *Matrix) Note(exchange string, market string, timeframe Timeframe,
	evaluator string) (Note, error) {
	key := noteKey{exchange: exchange, market: market, timeframe: timeframe, evaluator: evaluator}

	m.notesMtx.RLock()
	note, ok := m.notes[key]
	m.notesMtx.RUnlock()

	if !ok {
		return Note{}, ErrUnsetEvaluation
	}

	return note, nil
}
