package evaluator

import (
	"errors"
	"fmt"
	"math"

	"scalper/indicator"
	"scalper/shared"
)

const (
	// EMACrossName is the registered name of the ema cross evaluator.
	EMACrossName = "emacross"

	// noTradeZoneRatio scales the dynamic threshold into a dead band where
	// crossovers are ignored outright.
	noTradeZoneRatio = 0.8
)

// EMACrossConfig represents the ema cross evaluator configuration.
type EMACrossConfig struct {
	// FastPeriod is the fast ema period.
	FastPeriod int
	// SlowPeriod is the slow ema period.
	SlowPeriod int
	// PctThreshold is the minimum fast/slow separation as a percentage of price.
	PctThreshold float64
	// ATRPeriod is the average true range period used for the dynamic threshold.
	ATRPeriod int
	// MomentumLookback is the number of candles used for momentum agreement.
	MomentumLookback int
	// MinSlope is the minimum normalized slow ema slope for a tradeable trend.
	MinSlope float64
	// Reverse flips the direction of emitted signals.
	Reverse bool
}

// Validate asserts the config sane inputs.
func (cfg *EMACrossConfig) Validate() error {
	var errs error

	if cfg.FastPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("fast period must be positive, got %d", cfg.FastPeriod))
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		errs = errors.Join(errs, fmt.Errorf("slow period %d must exceed fast period %d",
			cfg.SlowPeriod, cfg.FastPeriod))
	}
	if cfg.PctThreshold < 0 {
		errs = errors.Join(errs, fmt.Errorf("percentage threshold cannot be negative, got %f",
			cfg.PctThreshold))
	}
	if cfg.ATRPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("atr period must be positive, got %d", cfg.ATRPeriod))
	}
	if cfg.MomentumLookback < 1 {
		errs = errors.Join(errs, fmt.Errorf("momentum lookback must be positive, got %d",
			cfg.MomentumLookback))
	}
	if cfg.MinSlope < 0 {
		errs = errors.Join(errs, fmt.Errorf("minimum slope cannot be negative, got %f", cfg.MinSlope))
	}

	return errs
}

// EMACross scores fast/slow exponential moving average crossovers, filtered
// by trend slope, a volatility-adjusted separation threshold and short-term
// momentum agreement.
type EMACross struct {
	cfg *EMACrossConfig
}

// NewEMACross initializes a new ema cross evaluator.
func NewEMACross(cfg *EMACrossConfig) (*EMACross, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating ema cross config: %w", err)
	}

	return &EMACross{cfg: cfg}, nil
}

// Name returns the evaluator's registered name.
func (e *EMACross) Name() string {
	return EMACrossName
}

// WarmupCandles returns the minimum number of candles required for evaluation.
func (e *EMACross) WarmupCandles() int {
	warmup := e.cfg.SlowPeriod + 1
	if e.cfg.ATRPeriod+1 > warmup {
		warmup = e.cfg.ATRPeriod + 1
	}
	if e.cfg.MomentumLookback+1 > warmup {
		warmup = e.cfg.MomentumLookback + 1
	}

	return warmup
}

// Evaluate computes a crossover note from the provided candle data.
func (e *EMACross) Evaluate(data *CandleData) shared.Note {
	if len(data.Close) < e.WarmupCandles() {
		return shared.PendingNote()
	}

	fast, err := indicator.EMA(data.Close, e.cfg.FastPeriod)
	if err != nil {
		return shared.PendingNote()
	}

	slow, err := indicator.EMA(data.Close, e.cfg.SlowPeriod)
	if err != nil {
		return shared.PendingNote()
	}

	atr, err := indicator.ATR(data.High, data.Low, data.Close, e.cfg.ATRPeriod)
	if err != nil {
		return shared.PendingNote()
	}

	slope, err := indicator.Slope(slow)
	if err != nil {
		return shared.PendingNote()
	}

	price := data.Close[len(data.Close)-1]
	if price == 0 {
		return shared.PendingNote()
	}

	// A flat slow ema indicates no tradeable trend.
	if math.Abs(slope) < e.cfg.MinSlope {
		return shared.NewSignalNote(shared.RawNone)
	}

	separation := (fast[len(fast)-1] - slow[len(slow)-1]) / price

	// The separation threshold adapts to volatility, widening when the true
	// range grows relative to price.
	dynamicThreshold := math.Max(e.cfg.PctThreshold/100, atr[len(atr)-1]/price)
	if math.Abs(separation) < noTradeZoneRatio*dynamicThreshold {
		return shared.NewSignalNote(shared.RawNone)
	}

	momentum := price - data.Close[len(data.Close)-1-e.cfg.MomentumLookback]

	var signal shared.RawSignal
	switch {
	case separation >= dynamicThreshold && momentum > 0:
		signal = shared.RawLong
	case separation <= -dynamicThreshold && momentum < 0:
		signal = shared.RawShort
	default:
		signal = shared.RawNone
	}

	if e.cfg.Reverse {
		signal = -signal
	}

	return shared.NewSignalNote(signal)
}
