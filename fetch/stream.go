package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"scalper/shared"
)

const (
	// initialBackoff is the starting reconnect backoff delay.
	initialBackoff = time.Second
	// maxBackoff is the reconnect backoff delay ceiling.
	maxBackoff = time.Minute
)

// StreamConfig represents the configuration for the candle stream.
type StreamConfig struct {
	// URL is the websocket url of the exchange candle stream.
	URL string
	// Markets is the collection of markets to subscribe to.
	Markets []string
	// Timeframes is the collection of timeframes to subscribe to.
	Timeframes []shared.Timeframe
	// Notify relays a streamed candle for processing.
	Notify func(candle shared.Candlestick)
	// RecordReconnect records a reconnection attempt for instrumentation.
	RecordReconnect func()
	// Logger represents the application logger.
	Logger zerolog.Logger
}

// Stream maintains a websocket subscription to live exchange candles,
// reconnecting with exponential backoff on failure.
type Stream struct {
	cfg *StreamConfig
}

// NewStream initializes a new candle stream.
func NewStream(cfg *StreamConfig) (*Stream, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("candle stream url cannot be an empty string")
	}
	if len(cfg.Markets) == 0 {
		return nil, fmt.Errorf("no markets provided for candle stream")
	}
	if len(cfg.Timeframes) == 0 {
		return nil, fmt.Errorf("no timeframes provided for candle stream")
	}

	return &Stream{cfg: cfg}, nil
}

// subscriptions generates the channel names of all market subscriptions.
func (s *Stream) subscriptions() []string {
	channels := make([]string, 0, len(s.cfg.Markets)*len(s.cfg.Timeframes))
	for _, market := range s.cfg.Markets {
		for idx := range s.cfg.Timeframes {
			channels = append(channels,
				fmt.Sprintf("kline.%s.%s", s.cfg.Timeframes[idx].String(), market))
		}
	}

	return channels
}

// parseCandle parses a streamed candle from the provided message payload.
func parseCandle(message []byte) (*shared.Candlestick, error) {
	payload := gjson.GetBytes(message, "data")
	if !payload.Exists() {
		return nil, fmt.Errorf("no candle payload in message: %s", string(message))
	}

	timeframe, err := shared.ParseTimeframe(payload.Get("interval").String())
	if err != nil {
		return nil, fmt.Errorf("parsing candle timeframe: %w", err)
	}

	timestamp := payload.Get("timestamp").Int()
	if timestamp == 0 {
		return nil, fmt.Errorf("parsing candle timestamp: %s", payload.Raw)
	}

	candle := &shared.Candlestick{
		Open:      payload.Get("open").Float(),
		High:      payload.Get("high").Float(),
		Low:       payload.Get("low").Float(),
		Close:     payload.Get("close").Float(),
		Volume:    payload.Get("volume").Float(),
		Timestamp: timestamp,
		Market:    payload.Get("symbol").String(),
		Timeframe: timeframe,
		Closed:    payload.Get("closed").Bool(),
	}

	return candle, nil
}

// connect dials the stream and subscribes to all configured channels.
func (s *Stream) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing candle stream: %w", err)
	}

	sub := struct {
		Op   string   `json:"op"`
		Args []string `json:"args"`
	}{
		Op:   "subscribe",
		Args: s.subscriptions(),
	}

	err = conn.WriteJSON(sub)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to candle stream: %w", err)
	}

	return conn, nil
}

// stream reads candles from the provided connection until it fails or the
// context is cancelled.
func (s *Stream) stream(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			// do nothing.
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading candle stream: %w", err)
		}

		candle, err := parseCandle(message)
		if err != nil {
			s.cfg.Logger.Error().Msgf("parsing streamed candle: %v", err)
			continue
		}

		s.cfg.Notify(*candle)
	}
}

// Run manages the lifecycle processes of the candle stream.
func (s *Stream) Run(ctx context.Context) {
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.connect(ctx)
		if err != nil {
			s.cfg.Logger.Error().Msgf("connecting candle stream: %v, retrying in %s",
				err, backoff)
		} else {
			s.cfg.Logger.Info().Msgf("candle stream connected to %s", s.cfg.URL)
			backoff = initialBackoff

			err = s.stream(ctx, conn)
			conn.Close()
			if err == nil {
				// The context was cancelled while streaming.
				return
			}

			s.cfg.Logger.Error().Msgf("candle stream disconnected: %v, retrying in %s",
				err, backoff)
		}

		if s.cfg.RecordReconnect != nil {
			s.cfg.RecordReconnect()
		}

		select {
		case <-time.After(backoff):
			// do nothing.
		case <-ctx.Done():
			return
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
