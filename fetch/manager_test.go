package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"

	"scalper/shared"
)

func TestManagerCatchUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(klinesResponse))
	}))
	defer server.Close()

	var caughtUp []shared.CaughtUpSignal
	mgr, err := NewManager(&ManagerConfig{
		ExchangeClient: NewClient(&Config{BaseURL: server.URL, APIKey: "key"}),
		Markets:        []string{"BTCUSDT"},
		Timeframes:     []shared.Timeframe{shared.OneMinute},
		SignalCaughtUp: func(signal shared.CaughtUpSignal) {
			caughtUp = append(caughtUp, signal)
		},
		Logger: zerolog.Nop(),
	})
	assert.NoError(t, err)

	updates := make(chan shared.Candlestick, 8)
	mgr.Subscribe(&updates)

	signal := shared.NewCatchUpSignal("BTCUSDT",
		[]shared.Timeframe{shared.OneMinute}, time.Unix(0, 0))
	mgr.handleCatchUpSignal(context.Background(), signal)

	// Ensure fetched candles fan out to subscribers.
	assert.Equal(t, len(updates), 2)
	candle := <-updates
	assert.Equal(t, candle.Market, "BTCUSDT")
	assert.Equal(t, candle.Timestamp, int64(60))
	assert.True(t, candle.Closed)

	// Ensure the signal status and caught up notification are sent.
	assert.Equal(t, <-signal.Status, shared.Processed)
	assert.Equal(t, len(caughtUp), 1)
	assert.Equal(t, caughtUp[0].Market, "BTCUSDT")

	// Ensure the market's last update tracks the final fetched candle.
	assert.Equal(t, mgr.lastUpdatedTimes["BTCUSDT"], time.Unix(120, 0).UTC())

	// Ensure an exchange client is required.
	_, err = NewManager(&ManagerConfig{})
	assert.Error(t, err)
}

func TestManagerCatchUpUnavailableData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	mgr, err := NewManager(&ManagerConfig{
		ExchangeClient: NewClient(&Config{BaseURL: server.URL, APIKey: "key"}),
		Markets:        []string{"BTCUSDT"},
		Timeframes:     []shared.Timeframe{shared.OneMinute},
		Logger:         zerolog.Nop(),
	})
	assert.NoError(t, err)

	// Ensure an empty response surfaces the data unavailable error.
	err = mgr.catchUpTimeframe(context.Background(), "BTCUSDT", shared.OneMinute,
		time.Unix(0, 0))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDataUnavailable))
}
