package evaluator

import "fmt"

// NewEvaluator initializes a registered evaluator by name with its default
// configuration.
func NewEvaluator(name string) (Evaluator, error) {
	switch name {
	case EMACrossName:
		return NewEMACross(&EMACrossConfig{
			FastPeriod:       21,
			SlowPeriod:       100,
			PctThreshold:     0.25,
			ATRPeriod:        14,
			MomentumLookback: 3,
			MinSlope:         0.00025,
		})
	case TrendScoreName:
		return NewTrendScore(&TrendScoreConfig{
			LongEMAPeriod:  200,
			ShortEMAPeriod: 50,
			RSIPeriod:      14,
			LongRSILow:     45,
			LongRSIHigh:    65,
			ShortRSILow:    35,
			ShortRSIHigh:   55,
		})
	case MeanReversionName:
		return NewMeanReversion(&MeanReversionConfig{
			BandsPeriod:     20,
			BandsMultiplier: 2,
			RSIPeriod:       14,
			Oversold:        30,
			Overbought:      70,
		})
	case PullbackName:
		return NewPullback(&PullbackConfig{
			EMAPeriod:             20,
			PullbackDepth:         0.3,
			RecentChangeThreshold: 2,
			VolumeMultiplier:      1,
		})
	case RangeRegimeName:
		return NewRangeRegime(&RangeRegimeConfig{
			EMAPeriod:         50,
			ADXPeriod:         14,
			ADXThreshold:      20,
			SlopeThresholdPct: 2,
		})
	default:
		return nil, fmt.Errorf("unknown evaluator name: %s", name)
	}
}
