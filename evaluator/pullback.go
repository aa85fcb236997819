package evaluator

import (
	"errors"
	"fmt"
	"math"

	"scalper/indicator"
	"scalper/shared"
)

const (
	// PullbackName is the registered name of the pullback evaluator.
	PullbackName = "pullback"

	// recentLookback is the number of candles spanned by the recent move check.
	recentLookback = 5
)

// PullbackConfig represents the pullback evaluator configuration.
type PullbackConfig struct {
	// EMAPeriod is the trend ema period.
	EMAPeriod int
	// PullbackDepth is the minimum counter-trend deviation from the ema,
	// as a percentage of the ema.
	PullbackDepth float64
	// RecentChangeThreshold is the minimum percentage move over the recent
	// lookback window.
	RecentChangeThreshold float64
	// VolumeMultiplier scales the recent average volume for confirmation.
	VolumeMultiplier float64
}

// Validate asserts the config sane inputs.
func (cfg *PullbackConfig) Validate() error {
	var errs error

	if cfg.EMAPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("ema period must be positive, got %d", cfg.EMAPeriod))
	}
	if cfg.PullbackDepth <= 0 {
		errs = errors.Join(errs, fmt.Errorf("pullback depth must be positive, got %f",
			cfg.PullbackDepth))
	}
	if cfg.RecentChangeThreshold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("recent change threshold must be positive, got %f",
			cfg.RecentChangeThreshold))
	}
	if cfg.VolumeMultiplier <= 0 {
		errs = errors.Join(errs, fmt.Errorf("volume multiplier must be positive, got %f",
			cfg.VolumeMultiplier))
	}

	return errs
}

// Pullback scores counter-trend retracements toward a trend ema, confirmed by
// volume, with magnitude proportional to the size of the retracement.
type Pullback struct {
	cfg *PullbackConfig
}

// NewPullback initializes a new pullback evaluator.
func NewPullback(cfg *PullbackConfig) (*Pullback, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating pullback config: %w", err)
	}

	return &Pullback{cfg: cfg}, nil
}

// Name returns the evaluator's registered name.
func (p *Pullback) Name() string {
	return PullbackName
}

// WarmupCandles returns the minimum number of candles required for evaluation.
func (p *Pullback) WarmupCandles() int {
	// The trend direction spans recentLookback ema values, so the ema series
	// must extend beyond the retracement being measured.
	return p.cfg.EMAPeriod + recentLookback
}

// Evaluate computes a pullback note from the provided candle data.
func (p *Pullback) Evaluate(data *CandleData) shared.Note {
	if len(data.Close) < p.WarmupCandles() || len(data.Volume) < recentLookback {
		return shared.PendingNote()
	}

	ema, err := indicator.EMA(data.Close, p.cfg.EMAPeriod)
	if err != nil || len(ema) <= recentLookback {
		return shared.PendingNote()
	}

	trendEMA := ema[len(ema)-1]
	if trendEMA == 0 {
		return shared.PendingNote()
	}

	// The trend direction is judged over the retracement window so a late
	// dip does not mask the prevailing trend.
	trendDelta := trendEMA - ema[len(ema)-1-recentLookback]

	price := data.Close[len(data.Close)-1]
	anchor := data.Close[len(data.Close)-1-recentLookback]
	if anchor == 0 {
		return shared.PendingNote()
	}

	deviationPct := (price - trendEMA) / trendEMA * 100
	recentChangePct := (price - anchor) / anchor * 100

	recentVolume, err := indicator.Mean(data.Volume[len(data.Volume)-recentLookback:])
	if err != nil {
		return shared.PendingNote()
	}
	volumeConfirmed := data.Volume[len(data.Volume)-1] >= recentVolume*p.cfg.VolumeMultiplier

	strength := math.Min(1, math.Abs(recentChangePct)/100)

	switch {
	case trendDelta > 0 && deviationPct <= -p.cfg.PullbackDepth &&
		recentChangePct <= -p.cfg.RecentChangeThreshold && volumeConfirmed:
		// A confirmed dip within an uptrend anticipates a long continuation.
		return shared.NewNote(strength)
	case trendDelta < 0 && deviationPct >= p.cfg.PullbackDepth &&
		recentChangePct >= p.cfg.RecentChangeThreshold && volumeConfirmed:
		// A confirmed rally within a downtrend anticipates a short continuation.
		return shared.NewNote(-strength)
	default:
		return shared.NewNote(0)
	}
}
