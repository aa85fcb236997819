package evaluator

import (
	"errors"
	"fmt"
	"math"

	"scalper/indicator"
	"scalper/shared"
)

// RangeRegimeName is the registered name of the range regime evaluator.
const RangeRegimeName = "rangeregime"

// RangeRegimeConfig represents the range regime evaluator configuration.
type RangeRegimeConfig struct {
	// EMAPeriod is the ema period used for the slope flatness check.
	EMAPeriod int
	// ADXPeriod is the average directional index period.
	ADXPeriod int
	// ADXThreshold is the adx level below which a market is considered ranging.
	ADXThreshold float64
	// SlopeThresholdPct is the maximum ema slope, as a percentage, for a flat
	// trend.
	SlopeThresholdPct float64
}

// Validate asserts the config sane inputs.
func (cfg *RangeRegimeConfig) Validate() error {
	var errs error

	if cfg.EMAPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("ema period must be positive, got %d", cfg.EMAPeriod))
	}
	if cfg.ADXPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("adx period must be positive, got %d", cfg.ADXPeriod))
	}
	if cfg.ADXThreshold <= 0 || cfg.ADXThreshold >= 100 {
		errs = errors.Join(errs, fmt.Errorf("adx threshold must be within (0, 100), got %f",
			cfg.ADXThreshold))
	}
	if cfg.SlopeThresholdPct <= 0 {
		errs = errors.Join(errs, fmt.Errorf("slope threshold must be positive, got %f",
			cfg.SlopeThresholdPct))
	}

	return errs
}

// RangeRegime classifies a market as ranging or trending. A note of one
// permits range-bound strategies, a note of zero suppresses them.
type RangeRegime struct {
	cfg *RangeRegimeConfig
}

// NewRangeRegime initializes a new range regime evaluator.
func NewRangeRegime(cfg *RangeRegimeConfig) (*RangeRegime, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating range regime config: %w", err)
	}

	return &RangeRegime{cfg: cfg}, nil
}

// Name returns the evaluator's registered name.
func (r *RangeRegime) Name() string {
	return RangeRegimeName
}

// WarmupCandles returns the minimum number of candles required for evaluation.
func (r *RangeRegime) WarmupCandles() int {
	warmup := r.cfg.EMAPeriod + 2
	if 2*r.cfg.ADXPeriod+1 > warmup {
		warmup = 2*r.cfg.ADXPeriod + 1
	}

	return warmup
}

// Evaluate computes a regime note from the provided candle data.
func (r *RangeRegime) Evaluate(data *CandleData) shared.Note {
	if len(data.Close) < r.WarmupCandles() {
		return shared.PendingNote()
	}

	adx, err := indicator.ADX(data.High, data.Low, data.Close, r.cfg.ADXPeriod)
	if err != nil {
		return shared.PendingNote()
	}

	ema, err := indicator.EMA(data.Close, r.cfg.EMAPeriod)
	if err != nil {
		return shared.PendingNote()
	}

	slope, err := indicator.Slope(ema)
	if err != nil {
		return shared.PendingNote()
	}

	ranging := adx[len(adx)-1] < r.cfg.ADXThreshold &&
		math.Abs(slope)*100 < r.cfg.SlopeThresholdPct
	if ranging {
		return shared.NewNote(1)
	}

	return shared.NewNote(0)
}
