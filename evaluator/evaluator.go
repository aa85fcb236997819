// Package evaluator reduces windows of candle data to bounded directional
// scores. Evaluators are pure scoring strategies selected by configuration;
// all per-market mutable state (signal history, candle snapshots) is owned by
// the manager that drives them.
package evaluator

import (
	"scalper/shared"
)

// CandleData is a read-only view of a market's candle history handed to an
// evaluator for one evaluation cycle. Slices are chronologically ordered and
// never retained or mutated by evaluators.
type CandleData struct {
	Close  []float64
	High   []float64
	Low    []float64
	Volume []float64
}

// Evaluator defines the requirements for a single-series scoring strategy.
type Evaluator interface {
	// Name returns the evaluator's registered name.
	Name() string
	// WarmupCandles returns the minimum number of candles required before
	// the evaluator can produce a non-pending note.
	WarmupCandles() int
	// Evaluate computes a note from the provided candle data. Insufficient
	// history and degenerate arithmetic conditions yield the pending note,
	// never an error.
	Evaluate(data *CandleData) shared.Note
}
