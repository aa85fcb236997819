// Package strategy turns per-timeframe evaluation notes into trading state
// transitions. Notes are aggregated across timeframes, gated by market
// regime and applied to a per-market state machine.
package strategy

import (
	"errors"
	"fmt"

	"scalper/shared"
)

// Decision is an aggregated cross-timeframe score.
type Decision struct {
	// Value is the weighted sum of the latest note per timeframe.
	Value float64
	// Contributions holds the weighted score contributed by each timeframe.
	Contributions map[shared.Timeframe]float64
}

// AggregatorConfig represents the note aggregator configuration.
type AggregatorConfig struct {
	// Weights maps each aggregated timeframe to its decision weight. Weights
	// conventionally sum to one but are not required to.
	Weights map[shared.Timeframe]float64
}

// Validate asserts the config sane inputs.
func (cfg *AggregatorConfig) Validate() error {
	var errs error

	if len(cfg.Weights) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no timeframe weights provided"))
	}

	for timeframe, weight := range cfg.Weights {
		tf := timeframe
		if weight <= 0 {
			errs = errors.Join(errs, fmt.Errorf("%s weight must be positive, got %f",
				tf.String(), weight))
		}
	}

	return errs
}

// Aggregator combines the latest note per timeframe into a weighted decision.
// It is owned by a single strategy worker and is not safe for concurrent use.
type Aggregator struct {
	cfg   *AggregatorConfig
	notes map[shared.Timeframe]shared.Note
}

// NewAggregator initializes a new note aggregator.
func NewAggregator(cfg *AggregatorConfig) (*Aggregator, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating aggregator config: %w", err)
	}

	return &Aggregator{
		cfg:   cfg,
		notes: make(map[shared.Timeframe]shared.Note, len(cfg.Weights)),
	}, nil
}

// SetNote records the latest note for the provided timeframe. Notes for
// timeframes outside the configured weights are ignored.
func (a *Aggregator) SetNote(timeframe shared.Timeframe, note shared.Note) {
	if _, ok := a.cfg.Weights[timeframe]; !ok {
		return
	}

	a.notes[timeframe] = note
}

// Decision computes the weighted cross-timeframe decision. No decision is
// produced until every configured timeframe has reported a non-pending note.
func (a *Aggregator) Decision() (*Decision, bool) {
	contributions := make(map[shared.Timeframe]float64, len(a.cfg.Weights))

	var value float64
	for timeframe, weight := range a.cfg.Weights {
		note, ok := a.notes[timeframe]
		if !ok || note.IsPending() {
			return nil, false
		}

		contribution := weight * note.Value()
		contributions[timeframe] = contribution
		value += contribution
	}

	return &Decision{
		Value:         value,
		Contributions: contributions,
	}, true
}
