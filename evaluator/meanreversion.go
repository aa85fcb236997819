package evaluator

import (
	"errors"
	"fmt"

	"scalper/indicator"
	"scalper/shared"
)

// MeanReversionName is the registered name of the mean reversion evaluator.
const MeanReversionName = "meanreversion"

// MeanReversionConfig represents the mean reversion evaluator configuration.
type MeanReversionConfig struct {
	// BandsPeriod is the bollinger bands period.
	BandsPeriod int
	// BandsMultiplier is the bollinger bands standard deviation multiplier.
	BandsMultiplier float64
	// RSIPeriod is the relative strength index period.
	RSIPeriod int
	// Oversold is the rsi level below which a market is considered oversold.
	Oversold float64
	// Overbought is the rsi level above which a market is considered overbought.
	Overbought float64
}

// Validate asserts the config sane inputs.
func (cfg *MeanReversionConfig) Validate() error {
	var errs error

	if cfg.BandsPeriod < 2 {
		errs = errors.Join(errs, fmt.Errorf("bands period must be at least 2, got %d", cfg.BandsPeriod))
	}
	if cfg.BandsMultiplier <= 0 {
		errs = errors.Join(errs, fmt.Errorf("bands multiplier must be positive, got %f",
			cfg.BandsMultiplier))
	}
	if cfg.RSIPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("rsi period must be positive, got %d", cfg.RSIPeriod))
	}
	if cfg.Oversold <= 0 || cfg.Oversold >= 100 {
		errs = errors.Join(errs, fmt.Errorf("oversold level must be within (0, 100), got %f",
			cfg.Oversold))
	}
	if cfg.Overbought <= cfg.Oversold || cfg.Overbought >= 100 {
		errs = errors.Join(errs, fmt.Errorf("overbought level must be within (%f, 100), got %f",
			cfg.Oversold, cfg.Overbought))
	}

	return errs
}

// MeanReversion scores band touches confirmed by a turning relative strength
// index, anticipating a reversion toward the mean.
type MeanReversion struct {
	cfg *MeanReversionConfig
}

// NewMeanReversion initializes a new mean reversion evaluator.
func NewMeanReversion(cfg *MeanReversionConfig) (*MeanReversion, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating mean reversion config: %w", err)
	}

	return &MeanReversion{cfg: cfg}, nil
}

// Name returns the evaluator's registered name.
func (m *MeanReversion) Name() string {
	return MeanReversionName
}

// WarmupCandles returns the minimum number of candles required for evaluation.
func (m *MeanReversion) WarmupCandles() int {
	warmup := m.cfg.BandsPeriod + 1
	// Two rsi values are needed to confirm the index is turning.
	if m.cfg.RSIPeriod+2 > warmup {
		warmup = m.cfg.RSIPeriod + 2
	}

	return warmup
}

// Evaluate computes a mean reversion note from the provided candle data.
func (m *MeanReversion) Evaluate(data *CandleData) shared.Note {
	if len(data.Close) < m.WarmupCandles() {
		return shared.PendingNote()
	}

	lower, _, upper, err := indicator.BollingerBands(data.Close, m.cfg.BandsPeriod,
		m.cfg.BandsMultiplier)
	if err != nil {
		return shared.PendingNote()
	}

	rsi, err := indicator.RSI(data.Close, m.cfg.RSIPeriod)
	if err != nil || len(rsi) < 2 {
		return shared.PendingNote()
	}

	price := data.Close[len(data.Close)-1]
	currentRSI := rsi[len(rsi)-1]
	previousRSI := rsi[len(rsi)-2]

	switch {
	case price <= lower[len(lower)-1] && currentRSI < m.cfg.Oversold && currentRSI > previousRSI:
		return shared.NewSignalNote(shared.RawLong)
	case price >= upper[len(upper)-1] && currentRSI > m.cfg.Overbought && currentRSI < previousRSI:
		return shared.NewSignalNote(shared.RawShort)
	default:
		return shared.NewSignalNote(shared.RawNone)
	}
}
