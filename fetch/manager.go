package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"scalper/shared"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 8
	// minSubscriberBuffer is the minimum buffer size for subscribers.
	minSubscriberBuffer = 24
	// pollInterval is the interval of the historical gap poll job.
	pollInterval = time.Minute
)

// ManagerConfig represents the configuration for the fetch manager.
type ManagerConfig struct {
	// ExchangeClient represents the market exchange client.
	ExchangeClient *Client
	// Markets is the collection of tracked markets.
	Markets []string
	// Timeframes is the collection of tracked timeframes.
	Timeframes []shared.Timeframe
	// SignalCaughtUp signals the conclusion of a market catch up.
	SignalCaughtUp func(signal shared.CaughtUpSignal)
	// Logger represents the application logger.
	Logger zerolog.Logger
}

// Manager sources candle data and fans it out to subscribed consumers.
type Manager struct {
	cfg              *ManagerConfig
	lastUpdatedTimes map[string]time.Time
	lastUpdatedMtx   sync.RWMutex
	jobScheduler     gocron.Scheduler
	catchUpSignals   chan shared.CatchUpSignal
	updateSignals    chan shared.Candlestick
	subscribers      []*chan shared.Candlestick
	workers          chan struct{}
}

// NewManager initializes the fetch manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg.ExchangeClient == nil {
		return nil, fmt.Errorf("no exchange client provided for fetch manager")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating job scheduler: %w", err)
	}

	mgr := &Manager{
		cfg:              cfg,
		lastUpdatedTimes: make(map[string]time.Time),
		jobScheduler:     scheduler,
		catchUpSignals:   make(chan shared.CatchUpSignal, bufferSize),
		updateSignals:    make(chan shared.Candlestick, bufferSize),
		subscribers:      make([]*chan shared.Candlestick, 0, minSubscriberBuffer),
		workers:          make(chan struct{}, maxWorkers),
	}

	return mgr, nil
}

// Subscribe registers the provided subscriber for market updates.
func (m *Manager) Subscribe(sub *chan shared.Candlestick) {
	m.subscribers = append(m.subscribers, sub)
}

// notifySubscribers notifies subscribers of the new market update.
func (m *Manager) notifySubscribers(candle *shared.Candlestick) {
	for k := range m.subscribers {
		*m.subscribers[k] <- *candle
	}
}

// SendCatchUpSignal relays the provided market catch up signal for processing.
func (m *Manager) SendCatchUpSignal(catchUp shared.CatchUpSignal) {
	select {
	case m.catchUpSignals <- catchUp:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("catchup signal channel at capacity: %d/%d",
			len(m.catchUpSignals), bufferSize)
	}
}

// SendMarketUpdate relays the provided streamed candle for fan out.
func (m *Manager) SendMarketUpdate(candle shared.Candlestick) {
	select {
	case m.updateSignals <- candle:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("market update channel at capacity: %d/%d",
			len(m.updateSignals), bufferSize)
	}
}

// catchUpTimeframe fetches and fans out historical candles for a single
// market timeframe.
func (m *Manager) catchUpTimeframe(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time) error {
	data, err := m.cfg.ExchangeClient.FetchHistorical(ctx, market, timeframe, start, time.Time{})
	if err != nil {
		return fmt.Errorf("catching up on %s (%s): %w", market, timeframe.String(), err)
	}

	if len(data) == 0 {
		return fmt.Errorf("catching up on %s (%s): %w", market, timeframe.String(),
			shared.ErrDataUnavailable)
	}

	candles, err := m.cfg.ExchangeClient.ParseCandlesticks(data, market, timeframe)
	if err != nil {
		return fmt.Errorf("parsing candlesticks for %s: %w", market, err)
	}

	for idx := range candles {
		m.notifySubscribers(&candles[idx])
	}

	m.lastUpdatedMtx.Lock()
	m.lastUpdatedTimes[market] = time.Unix(candles[len(candles)-1].Timestamp, 0).UTC()
	m.lastUpdatedMtx.Unlock()

	return nil
}

// handleCatchUpSignal processes the provided catch up signal.
func (m *Manager) handleCatchUpSignal(ctx context.Context, signal shared.CatchUpSignal) {
	for idx := range signal.Timeframes {
		err := m.catchUpTimeframe(ctx, signal.Market, signal.Timeframes[idx], signal.Start)
		if err != nil {
			m.cfg.Logger.Error().Msgf("handling catch up signal: %v", err)
		}
	}

	select {
	case signal.Status <- shared.Processed:
		// do nothing.
	default:
		// do nothing.
	}

	if m.cfg.SignalCaughtUp != nil {
		m.cfg.SignalCaughtUp(shared.NewCaughtUpSignal(signal.Market))
	}
}

// pollMarkets backfills candles for all tracked markets since their last
// update, covering stream gaps.
func (m *Manager) pollMarkets(ctx context.Context) {
	for _, market := range m.cfg.Markets {
		m.lastUpdatedMtx.RLock()
		start, ok := m.lastUpdatedTimes[market]
		m.lastUpdatedMtx.RUnlock()
		if !ok {
			// The market has not caught up yet.
			continue
		}

		for idx := range m.cfg.Timeframes {
			err := m.catchUpTimeframe(ctx, market, m.cfg.Timeframes[idx], start)
			if err != nil {
				m.cfg.Logger.Error().Msgf("polling markets: %v", err)
			}
		}
	}
}

// Run manages the lifecycle processes of the fetch manager.
func (m *Manager) Run(ctx context.Context) {
	_, err := m.jobScheduler.NewJob(gocron.DurationJob(pollInterval),
		gocron.NewTask(func() { m.pollMarkets(ctx) }))
	if err != nil {
		m.cfg.Logger.Error().Msgf("creating market poll job: %v", err)
	}

	m.jobScheduler.Start()
	defer func() {
		err := m.jobScheduler.Shutdown()
		if err != nil {
			m.cfg.Logger.Error().Msgf("shutting down job scheduler: %v", err)
		}
	}()

	for {
		select {
		case signal := <-m.catchUpSignals:
			m.workers <- struct{}{}
			go func(signal *shared.CatchUpSignal) {
				m.handleCatchUpSignal(ctx, *signal)
				<-m.workers
			}(&signal)
		case candle := <-m.updateSignals:
			m.notifySubscribers(&candle)
		case <-ctx.Done():
			m.cfg.Logger.Info().Msg("fetch manager done")
			return
		}
	}
}
