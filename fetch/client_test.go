package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"

	"scalper/shared"
)

const klinesResponse = `[
	{"open": 100, "high": 101, "low": 99, "close": 100.5, "volume": 12.5, "timestamp": 60},
	{"open": 100.5, "high": 102, "low": 100, "close": 101.5, "volume": 9.25, "timestamp": 120}
]`

func TestParseCandlesticks(t *testing.T) {
	client := NewClient(&Config{BaseURL: "http://localhost", APIKey: "key"})
	data := gjson.Parse(klinesResponse).Array()

	candles, err := client.ParseCandlesticks(data, "BTCUSDT", shared.OneMinute)
	assert.NoError(t, err)
	assert.Equal(t, len(candles), 2)

	// Ensure candle fields are parsed from the payload.
	assert.Equal(t, candles[0].Open, 100.0)
	assert.Equal(t, candles[0].High, 101.0)
	assert.Equal(t, candles[0].Low, 99.0)
	assert.Equal(t, candles[0].Close, 100.5)
	assert.Equal(t, candles[0].Volume, 12.5)
	assert.Equal(t, candles[0].Timestamp, int64(60))
	assert.Equal(t, candles[0].Market, "BTCUSDT")
	assert.Equal(t, candles[0].Timeframe, shared.OneMinute)

	// Ensure fetched historical candles are closed.
	assert.True(t, candles[0].Closed)
	assert.True(t, candles[1].Closed)

	// Ensure a missing timestamp errors.
	data = gjson.Parse(`[{"open": 100, "close": 100.5}]`).Array()
	_, err = client.ParseCandlesticks(data, "BTCUSDT", shared.OneMinute)
	assert.Error(t, err)
}

func TestFetchHistorical(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(klinesResponse))
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, APIKey: "key"})

	start := time.Unix(0, 0)
	end := time.Unix(120, 0)
	data, err := client.FetchHistorical(context.Background(), "BTCUSDT",
		shared.OneMinute, start, end)
	assert.NoError(t, err)
	assert.Equal(t, len(data), 2)

	// Ensure the request carries the market, timeframe and range parameters.
	assert.True(t, strings.Contains(query, "symbol=BTCUSDT"))
	assert.True(t, strings.Contains(query, "interval=1m"))
	assert.True(t, strings.Contains(query, "from=0"))
	assert.True(t, strings.Contains(query, "to=120"))

	// Ensure a non-ok response errors.
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	client = NewClient(&Config{BaseURL: failing.URL, APIKey: "key"})
	_, err = client.FetchHistorical(context.Background(), "BTCUSDT",
		shared.OneMinute, start, end)
	assert.Error(t, err)
}
