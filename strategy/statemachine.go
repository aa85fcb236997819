package strategy

import (
	"errors"
	"fmt"
	"math"

	"scalper/shared"
)

// Outcome represents the result of applying a decision to a state machine.
type Outcome int

const (
	// OutcomeNone indicates the decision required no transition.
	OutcomeNone Outcome = iota
	// OutcomeTransition indicates a confirmed state transition.
	OutcomeTransition
	// OutcomeWithheld indicates the decision was malformed and discarded.
	OutcomeWithheld
	// OutcomeFlipRejected indicates a direct long/short flip was rejected.
	OutcomeFlipRejected
	// OutcomeCooldown indicates a directional entry was blocked by cooldown.
	OutcomeCooldown
)

// String stringifies the provided outcome.
func (o *Outcome) String() string {
	switch *o {
	case OutcomeNone:
		return "none"
	case OutcomeTransition:
		return "transition"
	case OutcomeWithheld:
		return "withheld"
	case OutcomeFlipRejected:
		return "flip rejected"
	case OutcomeCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// StateMachineConfig represents the state machine configuration.
type StateMachineConfig struct {
	// LongThreshold is the decision value at or above which a long state is
	// targeted.
	LongThreshold float64
	// ShortThreshold is the decision value at or below which a short state is
	// targeted.
	ShortThreshold float64
	// CooldownCandles is the number of candles that must elapse after a
	// directional exit before a new directional entry.
	CooldownCandles int
}

// Validate asserts the config sane inputs.
func (cfg *StateMachineConfig) Validate() error {
	var errs error

	if cfg.LongThreshold <= 0 || cfg.LongThreshold > 1 {
		errs = errors.Join(errs, fmt.Errorf("long threshold must be within (0, 1], got %f",
			cfg.LongThreshold))
	}
	if cfg.ShortThreshold >= 0 || cfg.ShortThreshold < -1 {
		errs = errors.Join(errs, fmt.Errorf("short threshold must be within [-1, 0), got %f",
			cfg.ShortThreshold))
	}
	if cfg.CooldownCandles < 0 {
		errs = errors.Join(errs, fmt.Errorf("cooldown candles cannot be negative, got %d",
			cfg.CooldownCandles))
	}

	return errs
}

// StateMachine maintains a market's trading state. It is owned by a single
// strategy worker and is not safe for concurrent use.
type StateMachine struct {
	cfg      *StateMachineConfig
	current  shared.TradingState
	cooldown int
}

// NewStateMachine initializes a new state machine in the neutral state.
func NewStateMachine(cfg *StateMachineConfig) (*StateMachine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating state machine config: %w", err)
	}

	return &StateMachine{
		cfg:     cfg,
		current: shared.StateNeutral,
	}, nil
}

// Current returns the machine's current trading state.
func (s *StateMachine) Current() shared.TradingState {
	return s.current
}

// target maps a decision value to the trading state it calls for.
func (s *StateMachine) target(value float64) shared.TradingState {
	switch {
	case value >= s.cfg.LongThreshold:
		return shared.StateLong
	case value <= s.cfg.ShortThreshold:
		return shared.StateShort
	default:
		return shared.StateNeutral
	}
}

// Apply advances the machine by one decision cycle, returning the outcome and
// the state held before the cycle. Malformed decision values are discarded
// without consuming a cooldown candle.
func (s *StateMachine) Apply(value float64) (Outcome, shared.TradingState) {
	previous := s.current

	if math.IsNaN(value) || value < -1 || value > 1 {
		return OutcomeWithheld, previous
	}

	// Each valid decision cycle corresponds to one candle of cooldown.
	if s.cooldown > 0 {
		s.cooldown--
	}

	target := s.target(value)
	if target == s.current {
		return OutcomeNone, previous
	}

	// A direct flip between opposing directional states requires an
	// intervening neutral cycle.
	if s.current.Opposes(target) {
		return OutcomeFlipRejected, previous
	}

	if target.Directional() && s.cooldown > 0 {
		return OutcomeCooldown, previous
	}

	if previous.Directional() && target == shared.StateNeutral {
		s.cooldown = s.cfg.CooldownCandles
	}

	s.current = target

	return OutcomeTransition, previous
}
