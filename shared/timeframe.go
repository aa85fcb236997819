package shared

import (
	"fmt"
	"time"
)

// Timeframe represents the market data aggregation interval.
type Timeframe int

const (
	OneMinute Timeframe = iota
	ThreeMinute
	FiveMinute
	FifteenMinute
	OneHour
)

// String stringifies the provided timeframe.
func (t *Timeframe) String() string {
	switch *t {
	case OneMinute:
		return "1m"
	case ThreeMinute:
		return "3m"
	case FiveMinute:
		return "5m"
	case FifteenMinute:
		return "15m"
	case OneHour:
		return "1H"
	default:
		return "unknown"
	}
}

// Duration returns the candle interval of the provided timeframe.
func (t *Timeframe) Duration() time.Duration {
	switch *t {
	case OneMinute:
		return time.Minute
	case ThreeMinute:
		return time.Minute * 3
	case FiveMinute:
		return time.Minute * 5
	case FifteenMinute:
		return time.Minute * 15
	case OneHour:
		return time.Hour
	default:
		return 0
	}
}

// ParseTimeframe parses a timeframe from the provided string.
func ParseTimeframe(tf string) (Timeframe, error) {
	switch tf {
	case "1m":
		return OneMinute, nil
	case "3m":
		return ThreeMinute, nil
	case "5m":
		return FiveMinute, nil
	case "15m":
		return FifteenMinute, nil
	case "1H", "1h":
		return OneHour, nil
	default:
		return 0, fmt.Errorf("unknown timeframe: %s", tf)
	}
}
