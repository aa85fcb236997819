package shared

import (
	"context"
	"errors"
	"time"

	"github.com/tidwall/gjson"
)

// ErrDataUnavailable is returned when fewer candles exist than the requested
// depth and the caller did not request best-effort results.
var ErrDataUnavailable = errors.New("market data unavailable at requested depth")

// MarketFetcher defines the requirements for fetching market candle data.
type MarketFetcher interface {
	// FetchHistorical fetches historical candle data for the provided market
	// and timeframe.
	FetchHistorical(ctx context.Context, market string, timeframe Timeframe, start time.Time, end time.Time) ([]gjson.Result, error)
}
