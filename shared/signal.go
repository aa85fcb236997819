package shared

import (
	"time"

	"github.com/google/uuid"
)

// StatusCode represents a request or signal status code.
type StatusCode int

const (
	Processing StatusCode = iota
	Processed
)

// NoteSignal represents an evaluation note produced by an evaluator for a
// market and timeframe.
type NoteSignal struct {
	Exchange  string
	Market    string
	Timeframe Timeframe
	Evaluator string
	Note      Note
	// Timestamp is the unix timestamp of the candle that triggered the
	// evaluation.
	Timestamp int64
	Status    chan StatusCode
}

// NewNoteSignal initializes a new note signal.
func NewNoteSignal(exchange string, market string, timeframe Timeframe, evaluator string,
	note Note, timestamp int64) NoteSignal {
	return NoteSignal{
		Exchange:  exchange,
		Market:    market,
		Timeframe: timeframe,
		Evaluator: evaluator,
		Note:      note,
		Timestamp: timestamp,
		Status:    make(chan StatusCode, 1),
	}
}

// StateChange represents a confirmed trading state transition for a market.
type StateChange struct {
	ID       string
	Market   string
	Previous TradingState
	Current  TradingState
	// Decision is the aggregated decision value that triggered the transition.
	Decision float64
	// Contributions holds the weighted per-timeframe scores of the decision.
	Contributions map[Timeframe]float64
	CreatedOn     time.Time
	Status        chan StatusCode
}

// NewStateChange initializes a new state change signal.
func NewStateChange(market string, previous TradingState, current TradingState,
	decision float64, contributions map[Timeframe]float64, created time.Time) StateChange {
	return StateChange{
		ID:            uuid.New().String(),
		Market:        market,
		Previous:      previous,
		Current:       current,
		Decision:      decision,
		Contributions: contributions,
		CreatedOn:     created,
		Status:        make(chan StatusCode, 1),
	}
}

// CatchUpSignal represents a signal to catch up on market data.
type CatchUpSignal struct {
	Market     string
	Timeframes []Timeframe
	Start      time.Time
	Status     chan StatusCode
}

// NewCatchUpSignal initializes a new catch up signal.
func NewCatchUpSignal(market string, timeframes []Timeframe, start time.Time) CatchUpSignal {
	return CatchUpSignal{
		Market:     market,
		Timeframes: timeframes,
		Start:      start,
		Status:     make(chan StatusCode, 1),
	}
}

// CaughtUpSignal represents a signal to conclude a catch up on market data.
type CaughtUpSignal struct {
	Market string
	Status chan StatusCode
}

// NewCaughtUpSignal initializes a new caught up signal.
func NewCaughtUpSignal(market string) CaughtUpSignal {
	return CaughtUpSignal{
		Market: market,
		Status: make(chan StatusCode, 1),
	}
}
