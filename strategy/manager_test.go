package strategy

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"

	"scalper/shared"
)

// managerHarness wires a strategy manager to scripted collaborators.
type managerHarness struct {
	mgr         *Manager
	regime      shared.Note
	regimeErr   error
	changes     []shared.StateChange
	persisted   []shared.StateChange
	withheld    int
	transitions int
}

func newManagerHarness(t *testing.T, regimeEvaluator string) *managerHarness {
	h := &managerHarness{regime: shared.NewNote(1)}

	mgr, err := NewManager(&ManagerConfig{
		Exchange: "bybit",
		Markets:  []string{"BTCUSDT"},
		Weights: map[shared.Timeframe]float64{
			shared.OneMinute:   0.5,
			shared.ThreeMinute: 0.5,
		},
		DecisionTimeframe: shared.OneMinute,
		LongThreshold:     0.6,
		ShortThreshold:    -0.6,
		CooldownCandles:   0,
		RegimeEvaluator:   regimeEvaluator,
		RegimeTimeframe:   shared.FifteenMinute,
		FetchNote: func(_ string, _ string, _ shared.Timeframe, _ string) (shared.Note, error) {
			return h.regime, h.regimeErr
		},
		SignalStateChange: func(change shared.StateChange) {
			h.changes = append(h.changes, change)
		},
		PersistStateChange: func(change *shared.StateChange) error {
			h.persisted = append(h.persisted, *change)
			return nil
		},
		RecordWithheld: func(string) { h.withheld++ },
		RecordTransition: func(string, shared.TradingState) {
			h.transitions++
		},
		Logger: zerolog.Nop(),
	})
	assert.NoError(t, err)

	h.mgr = mgr
	return h
}

func (h *managerHarness) sendNote(timeframe shared.Timeframe, value float64) {
	signal := shared.NewNoteSignal("bybit", "BTCUSDT", timeframe, "stub",
		shared.NewNote(value), 60)
	h.mgr.handleNoteSignal(&signal)
}

func TestManagerConfigValidate(t *testing.T) {
	// Ensure markets are required.
	cfg := &ManagerConfig{
		Weights:           map[shared.Timeframe]float64{shared.OneMinute: 1},
		DecisionTimeframe: shared.OneMinute,
	}
	assert.Error(t, cfg.Validate())

	// Ensure the decision timeframe must carry an aggregation weight.
	cfg = &ManagerConfig{
		Markets:           []string{"BTCUSDT"},
		Weights:           map[shared.Timeframe]float64{shared.FiveMinute: 1},
		DecisionTimeframe: shared.OneMinute,
	}
	assert.Error(t, cfg.Validate())
}

func TestManagerDecisionCycle(t *testing.T) {
	h := newManagerHarness(t, "")

	// Ensure no decision fires until every timeframe has reported.
	h.sendNote(shared.OneMinute, 1)
	assert.Equal(t, len(h.changes), 0)

	// Ensure notes outside the decision timeframe only refresh the aggregate.
	h.sendNote(shared.ThreeMinute, 1)
	assert.Equal(t, len(h.changes), 0)

	// Ensure a decision cycle on the decision timeframe confirms a transition.
	h.sendNote(shared.OneMinute, 1)
	assert.Equal(t, len(h.changes), 1)
	assert.Equal(t, h.changes[0].Previous, shared.StateNeutral)
	assert.Equal(t, h.changes[0].Current, shared.StateLong)
	assert.Equal(t, h.changes[0].Decision, 1.0)

	// Ensure the change carries the candle timestamp, not the wall clock.
	assert.Equal(t, h.changes[0].CreatedOn, time.Unix(60, 0).UTC())

	assert.Equal(t, len(h.persisted), 1)
	assert.Equal(t, h.transitions, 1)

	state, err := h.mgr.CurrentState("BTCUSDT")
	assert.NoError(t, err)
	assert.Equal(t, state, shared.StateLong)

	// Ensure an unchanged decision requires no transition.
	h.sendNote(shared.OneMinute, 1)
	assert.Equal(t, len(h.changes), 1)

	// Ensure an unknown market errors.
	_, err = h.mgr.CurrentState("ETHUSDT")
	assert.Error(t, err)
}

func TestManagerRegimeGate(t *testing.T) {
	h := newManagerHarness(t, "rangeregime")

	h.sendNote(shared.ThreeMinute, 1)

	// Ensure a trending regime withholds the decision without advancing the
	// state machine.
	h.regime = shared.NewNote(0)
	h.sendNote(shared.OneMinute, 1)
	assert.Equal(t, len(h.changes), 0)
	assert.Equal(t, h.withheld, 1)

	state, err := h.mgr.CurrentState("BTCUSDT")
	assert.NoError(t, err)
	assert.Equal(t, state, shared.StateNeutral)

	// Ensure a pending regime note suppresses decisions.
	h.regime = shared.PendingNote()
	h.sendNote(shared.OneMinute, 1)
	assert.Equal(t, len(h.changes), 0)
	assert.Equal(t, h.withheld, 2)

	// Ensure an unset regime evaluation suppresses decisions.
	h.regime = shared.NewNote(1)
	h.regimeErr = shared.ErrUnsetEvaluation
	h.sendNote(shared.OneMinute, 1)
	assert.Equal(t, len(h.changes), 0)
	assert.Equal(t, h.withheld, 3)

	// Ensure a ranging regime permits the decision.
	h.regimeErr = nil
	h.sendNote(shared.OneMinute, 1)
	assert.Equal(t, len(h.changes), 1)
	assert.Equal(t, h.changes[0].Current, shared.StateLong)
}
