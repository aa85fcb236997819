// Package fetch sources market candle data, over http for historical catch
// ups and over a websocket stream for live updates, and fans it out to
// subscribed consumers.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"scalper/shared"
)

// Config represents the configuration for the exchange client.
type Config struct {
	// BaseURL is the base url of the exchange rest api.
	BaseURL string
	// APIKey is the exchange API Key.
	APIKey string
}

// Client represents the exchange rest api client.
type Client struct {
	cfg   *Config
	httpc http.Client
	buf   *bytes.Buffer
}

// Ensure the Client implements the MarketFetcher interface.
var _ shared.MarketFetcher = (*Client)(nil)

// NewClient instantiates a new exchange client.
func NewClient(cfg *Config) *Client {
	return &Client{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}
}

// formURL creates full urls including parameters for the api.
func (c *Client) formURL(path string, params string) string {
	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// ParseCandlesticks parses candlesticks from the provided json data. Fetched
// historical candles are always closed.
func (c *Client) ParseCandlesticks(data []gjson.Result, market string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	candles := make([]shared.Candlestick, 0, len(data))

	for idx := range data {
		var candle shared.Candlestick

		candle.Open = data[idx].Get("open").Float()
		candle.Low = data[idx].Get("low").Float()
		candle.High = data[idx].Get("high").Float()
		candle.Close = data[idx].Get("close").Float()
		candle.Volume = data[idx].Get("volume").Float()

		timestamp := data[idx].Get("timestamp").Int()
		if timestamp == 0 {
			return nil, fmt.Errorf("parsing candlestick timestamp: %s", data[idx].Raw)
		}

		candle.Timestamp = timestamp
		candle.Market = market
		candle.Timeframe = timeframe
		candle.Closed = true

		candles = append(candles, candle)
	}

	return candles, nil
}

// FetchHistorical fetches historical candle data for the provided market and
// timeframe.
func (c *Client) FetchHistorical(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]gjson.Result, error) {
	const klinesPath = "/v1/klines"

	params := url.Values{}
	params.Add("symbol", market)
	params.Add("interval", timeframe.String())
	params.Add("apikey", c.cfg.APIKey)
	params.Add("from", strconv.FormatInt(start.Unix(), 10))
	if !end.IsZero() {
		params.Add("to", strconv.FormatInt(end.Unix(), 10))
	}

	formedURL := c.formURL(klinesPath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating historical data request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching historical data (%s) for %s: %w",
			timeframe.String(), market, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching historical data (%s) for %s: unexpected status %d",
			timeframe.String(), market, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	data := gjson.ParseBytes(body).Array()

	return data, nil
}
