package evaluator

import (
	"errors"
	"fmt"

	"scalper/indicator"
	"scalper/shared"
)

const (
	// TrendScoreName is the registered name of the trend score evaluator.
	TrendScoreName = "trendscore"

	// trendWeight is the weight of the long-term trend condition.
	trendWeight = 0.5
	// biasWeight is the weight of the short-term bias condition.
	biasWeight = 0.3
	// momentumWeight is the weight of the rsi momentum condition.
	momentumWeight = 0.2

	// slopeLookback is the number of long ema values spanned by the slope check.
	slopeLookback = 3
)

// TrendScoreConfig represents the trend score evaluator configuration.
type TrendScoreConfig struct {
	// LongEMAPeriod is the long-term trend ema period.
	LongEMAPeriod int
	// ShortEMAPeriod is the short-term bias ema period.
	ShortEMAPeriod int
	// RSIPeriod is the relative strength index period.
	RSIPeriod int
	// LongRSILow and LongRSIHigh bound the rsi band confirming long momentum.
	LongRSILow  float64
	LongRSIHigh float64
	// ShortRSILow and ShortRSIHigh bound the rsi band confirming short momentum.
	ShortRSILow  float64
	ShortRSIHigh float64
}

// Validate asserts the config sane inputs.
func (cfg *TrendScoreConfig) Validate() error {
	var errs error

	if cfg.ShortEMAPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("short ema period must be positive, got %d",
			cfg.ShortEMAPeriod))
	}
	if cfg.LongEMAPeriod <= cfg.ShortEMAPeriod {
		errs = errors.Join(errs, fmt.Errorf("long ema period %d must exceed short ema period %d",
			cfg.LongEMAPeriod, cfg.ShortEMAPeriod))
	}
	if cfg.RSIPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("rsi period must be positive, got %d", cfg.RSIPeriod))
	}
	if cfg.LongRSILow >= cfg.LongRSIHigh {
		errs = errors.Join(errs, fmt.Errorf("long rsi band [%f, %f] is empty",
			cfg.LongRSILow, cfg.LongRSIHigh))
	}
	if cfg.ShortRSILow >= cfg.ShortRSIHigh {
		errs = errors.Join(errs, fmt.Errorf("short rsi band [%f, %f] is empty",
			cfg.ShortRSILow, cfg.ShortRSIHigh))
	}

	return errs
}

// TrendScore scores trend alignment as a weighted sum of long-term trend,
// short-term bias and rsi momentum conditions.
type TrendScore struct {
	cfg *TrendScoreConfig
}

// NewTrendScore initializes a new trend score evaluator.
func NewTrendScore(cfg *TrendScoreConfig) (*TrendScore, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating trend score config: %w", err)
	}

	return &TrendScore{cfg: cfg}, nil
}

// Name returns the evaluator's registered name.
func (t *TrendScore) Name() string {
	return TrendScoreName
}

// WarmupCandles returns the minimum number of candles required for evaluation.
func (t *TrendScore) WarmupCandles() int {
	warmup := t.cfg.LongEMAPeriod + slopeLookback
	if t.cfg.RSIPeriod+1 > warmup {
		warmup = t.cfg.RSIPeriod + 1
	}

	return warmup
}

// Evaluate computes a trend alignment note from the provided candle data.
func (t *TrendScore) Evaluate(data *CandleData) shared.Note {
	if len(data.Close) < t.WarmupCandles() {
		return shared.PendingNote()
	}

	longEMA, err := indicator.EMA(data.Close, t.cfg.LongEMAPeriod)
	if err != nil || len(longEMA) < slopeLookback {
		return shared.PendingNote()
	}

	shortEMA, err := indicator.EMA(data.Close, t.cfg.ShortEMAPeriod)
	if err != nil {
		return shared.PendingNote()
	}

	rsi, err := indicator.RSI(data.Close, t.cfg.RSIPeriod)
	if err != nil {
		return shared.PendingNote()
	}

	price := data.Close[len(data.Close)-1]
	longTrend := longEMA[len(longEMA)-1]
	shortBias := shortEMA[len(shortEMA)-1]
	trendDelta := longTrend - longEMA[len(longEMA)-slopeLookback]
	momentum := rsi[len(rsi)-1]

	var longScore float64
	if price > longTrend && trendDelta > 0 {
		longScore += trendWeight
	}
	if price > shortBias {
		longScore += biasWeight
	}
	if momentum >= t.cfg.LongRSILow && momentum <= t.cfg.LongRSIHigh {
		longScore += momentumWeight
	}

	var shortScore float64
	if price < longTrend && trendDelta < 0 {
		shortScore += trendWeight
	}
	if price < shortBias {
		shortScore += biasWeight
	}
	if momentum >= t.cfg.ShortRSILow && momentum <= t.cfg.ShortRSIHigh {
		shortScore += momentumWeight
	}

	switch {
	case longScore > shortScore:
		return shared.NewNote(longScore)
	case shortScore > longScore:
		return shared.NewNote(-shortScore)
	default:
		return shared.NewNote(0)
	}
}
