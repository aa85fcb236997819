package shared

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	// Timestamp is the candle open time as a unix timestamp (seconds).
	Timestamp int64

	// Metadata fields.
	Market    string
	Timeframe Timeframe
	// Closed indicates whether the candle interval has completed. The most
	// recent candle of a series may still be in progress.
	Closed bool
}
