package strategy

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"

	"scalper/shared"
)

func stateMachineTestConfig() *StateMachineConfig {
	return &StateMachineConfig{
		LongThreshold:   0.6,
		ShortThreshold:  -0.6,
		CooldownCandles: 3,
	}
}

func TestStateMachineConfigValidate(t *testing.T) {
	// Ensure the long threshold must be within (0, 1].
	cfg := stateMachineTestConfig()
	cfg.LongThreshold = 0
	assert.Error(t, cfg.Validate())

	// Ensure the short threshold must be within [-1, 0).
	cfg = stateMachineTestConfig()
	cfg.ShortThreshold = 0.2
	assert.Error(t, cfg.Validate())

	// Ensure the cooldown cannot be negative.
	cfg = stateMachineTestConfig()
	cfg.CooldownCandles = -1
	assert.Error(t, cfg.Validate())

	assert.NoError(t, stateMachineTestConfig().Validate())
}

func TestStateMachineApply(t *testing.T) {
	machine, err := NewStateMachine(stateMachineTestConfig())
	assert.NoError(t, err)
	assert.Equal(t, machine.Current(), shared.StateNeutral)

	// Ensure malformed decision values are withheld.
	outcome, previous := machine.Apply(math.NaN())
	assert.Equal(t, outcome, OutcomeWithheld)
	assert.Equal(t, previous, shared.StateNeutral)

	outcome, _ = machine.Apply(1.5)
	assert.Equal(t, outcome, OutcomeWithheld)

	// Ensure a decision within the thresholds requires no transition.
	outcome, _ = machine.Apply(0.4)
	assert.Equal(t, outcome, OutcomeNone)

	// Ensure a decision above the long threshold enters a long state.
	outcome, previous = machine.Apply(0.7)
	assert.Equal(t, outcome, OutcomeTransition)
	assert.Equal(t, previous, shared.StateNeutral)
	assert.Equal(t, machine.Current(), shared.StateLong)

	// Ensure a repeated decision requires no transition.
	outcome, _ = machine.Apply(0.7)
	assert.Equal(t, outcome, OutcomeNone)

	// Ensure a direct long to short flip is rejected.
	outcome, previous = machine.Apply(-0.7)
	assert.Equal(t, outcome, OutcomeFlipRejected)
	assert.Equal(t, previous, shared.StateLong)
	assert.Equal(t, machine.Current(), shared.StateLong)

	// Ensure a directional exit enters the neutral state and arms the cooldown.
	outcome, previous = machine.Apply(0)
	assert.Equal(t, outcome, OutcomeTransition)
	assert.Equal(t, previous, shared.StateLong)
	assert.Equal(t, machine.Current(), shared.StateNeutral)

	// Ensure directional entries are blocked while the cooldown elapses.
	outcome, _ = machine.Apply(0.7)
	assert.Equal(t, outcome, OutcomeCooldown)

	outcome, _ = machine.Apply(-0.7)
	assert.Equal(t, outcome, OutcomeCooldown)

	// Ensure the entry is permitted once the cooldown candles have elapsed.
	outcome, previous = machine.Apply(-0.7)
	assert.Equal(t, outcome, OutcomeTransition)
	assert.Equal(t, previous, shared.StateNeutral)
	assert.Equal(t, machine.Current(), shared.StateShort)
}

func TestStateMachineInclusiveThresholds(t *testing.T) {
	cfg := stateMachineTestConfig()
	cfg.CooldownCandles = 0
	machine, err := NewStateMachine(cfg)
	assert.NoError(t, err)

	// Ensure a decision exactly at the long threshold enters a long state.
	outcome, _ := machine.Apply(0.6)
	assert.Equal(t, outcome, OutcomeTransition)
	assert.Equal(t, machine.Current(), shared.StateLong)

	outcome, _ = machine.Apply(0)
	assert.Equal(t, outcome, OutcomeTransition)

	// Ensure a decision exactly at the short threshold enters a short state.
	outcome, _ = machine.Apply(-0.6)
	assert.Equal(t, outcome, OutcomeTransition)
	assert.Equal(t, machine.Current(), shared.StateShort)
}

func TestStateMachineZeroCooldown(t *testing.T) {
	cfg := stateMachineTestConfig()
	cfg.CooldownCandles = 0
	machine, err := NewStateMachine(cfg)
	assert.NoError(t, err)

	// Ensure re-entry is immediate without a cooldown.
	outcome, _ := machine.Apply(0.7)
	assert.Equal(t, outcome, OutcomeTransition)

	outcome, _ = machine.Apply(0)
	assert.Equal(t, outcome, OutcomeTransition)

	outcome, _ = machine.Apply(0.7)
	assert.Equal(t, outcome, OutcomeTransition)
	assert.Equal(t, machine.Current(), shared.StateLong)
}
