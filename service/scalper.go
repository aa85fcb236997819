// Package service wires the decision pipeline together, from candle sourcing
// through evaluation and aggregation to state transitions.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"

	"scalper/database"
	"scalper/evaluator"
	"scalper/fetch"
	"scalper/metrics"
	"scalper/shared"
	"scalper/strategy"
)

const (
	// catchUpLookback is how far back historical catch ups reach.
	catchUpLookback = time.Hour * 48

	// persistTimeout bounds database writes for state changes.
	persistTimeout = time.Second * 5
)

// ScalperConfig represents the configuration struct for the scalper service.
type ScalperConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// Exchange is the name of the exchange candles originate from.
	Exchange string
	// APIKey is the exchange API Key.
	APIKey string
	// BaseURL is the base url of the exchange rest api.
	BaseURL string
	// WebsocketURL is the websocket url of the exchange candle stream.
	WebsocketURL string
	// Evaluations maps each scored timeframe to its evaluator name.
	Evaluations map[shared.Timeframe]string
	// Weights maps each aggregated timeframe to its decision weight.
	Weights map[shared.Timeframe]float64
	// DecisionTimeframe is the timeframe whose notes drive decision cycles.
	DecisionTimeframe shared.Timeframe
	// RegimeTimeframe is the timeframe the regime evaluator scores.
	RegimeTimeframe shared.Timeframe
	// LongThreshold is the decision value above which a long state is targeted.
	LongThreshold float64
	// ShortThreshold is the decision value below which a short state is
	// targeted.
	ShortThreshold float64
	// CooldownCandles is the number of candles that must elapse after a
	// directional exit before a new directional entry.
	CooldownCandles int
	// PersistenceWindow is the size of the signal persistence window.
	PersistenceWindow int
	// PersistenceMinimum is the required signal recurrence within the window.
	PersistenceMinimum int
	// DatabaseEndpoint represents the database connection endpoint.
	DatabaseEndpoint string
	// DatabaseUser is the database user.
	DatabaseUser string
	// DatabasePass is the database user pass.
	DatabasePass string
	// MetricsAddr is the listen address of the metrics server.
	MetricsAddr string
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *ScalperConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for scalper service"))
	}
	if cfg.Exchange == "" {
		errs = errors.Join(errs, fmt.Errorf("exchange cannot be an empty string"))
	}
	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("exchange base url cannot be an empty string"))
	}
	if cfg.WebsocketURL == "" {
		errs = errors.Join(errs, fmt.Errorf("exchange websocket url cannot be an empty string"))
	}
	if len(cfg.Evaluations) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no timeframe evaluations provided"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Scalper represents a trading signal decision service.
type Scalper struct {
	cfg              *ScalperConfig
	fetchManager     *fetch.Manager
	stream           *fetch.Stream
	evaluatorManager *evaluator.Manager
	strategyManager  *strategy.Manager
	db               *database.Database
	metrics          *metrics.Metrics
	metricsServer    *metrics.Server
	matrix           *shared.Matrix
	updates          chan shared.Candlestick
	timeframes       []shared.Timeframe
	logger           *zerolog.Logger
	wg               sync.WaitGroup
}

// NewScalper initializes a new scalper service.
func NewScalper(ctx context.Context, cfg *ScalperConfig) (*Scalper, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating scalper config: %w", err)
	}

	var evaluatorMgr *evaluator.Manager
	var strategyMgr *strategy.Manager

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "scalper").Logger()

	pipelineMetrics := metrics.NewMetrics()
	metricsLogger := logger.With().Str("component", "metrics").Logger()
	metricsServer := metrics.NewServer(cfg.MetricsAddr, metricsLogger)

	dbLogger := logger.With().Str("component", "database").Logger()
	db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
		Endpoint: cfg.DatabaseEndpoint,
		User:     cfg.DatabaseUser,
		Pass:     cfg.DatabasePass,
		Logger:   &dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	matrix := shared.NewMatrix()

	timeframes := make([]shared.Timeframe, 0, len(cfg.Evaluations))
	subscriptions := make([]evaluator.Subscription, 0, len(cfg.Evaluations))
	for timeframe, name := range cfg.Evaluations {
		eval, err := evaluator.NewEvaluator(name)
		if err != nil {
			return nil, fmt.Errorf("creating %s evaluator: %w", name, err)
		}

		sub := evaluator.Subscription{
			Timeframe: timeframe,
			Evaluator: eval,
		}

		// Regime scores bypass persistence filtering so the gate always
		// reflects the latest classification.
		if name != evaluator.RangeRegimeName {
			sub.PersistenceWindow = cfg.PersistenceWindow
			sub.PersistenceMinimum = cfg.PersistenceMinimum
		}

		timeframes = append(timeframes, timeframe)
		subscriptions = append(subscriptions, sub)
	}

	relayNoteFunc := func(signal shared.NoteSignal) {
		if strategyMgr != nil {
			strategyMgr.SendNote(signal)
		}
	}

	evaluatorMgrLogger := logger.With().Str("component", "evaluatormanager").Logger()
	evaluatorMgr, err = evaluator.NewManager(&evaluator.ManagerConfig{
		Exchange:      cfg.Exchange,
		Markets:       cfg.Markets,
		Subscriptions: subscriptions,
		SetNote:       matrix.SetNote,
		RelayNote:     relayNoteFunc,
		RecordEvaluation: func(market string, timeframe shared.Timeframe, pending bool, duration time.Duration) {
			pipelineMetrics.RecordEvaluation(market, timeframe.String(), pending, duration)
		},
		Logger: evaluatorMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating evaluator manager: %w", err)
	}

	signalStateChangeFunc := func(change shared.StateChange) {
		var gauge float64
		switch change.Current {
		case shared.StateLong:
			gauge = 1
		case shared.StateShort:
			gauge = -1
		}
		pipelineMetrics.CurrentState.WithLabelValues(change.Market).Set(gauge)

		logger.Info().Msgf("%s entered %s state on decision %.4f (id %s)",
			change.Market, change.Current.String(), change.Decision, change.ID)

		select {
		case change.Status <- shared.Processed:
			// do nothing.
		default:
			// do nothing.
		}
	}

	persistStateChangeFunc := func(change *shared.StateChange) error {
		persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		return db.PersistStateChange(persistCtx, change)
	}

	strategyMgrLogger := logger.With().Str("component", "strategymanager").Logger()
	strategyMgr, err = strategy.NewManager(&strategy.ManagerConfig{
		Exchange:           cfg.Exchange,
		Markets:            cfg.Markets,
		Weights:            cfg.Weights,
		DecisionTimeframe:  cfg.DecisionTimeframe,
		LongThreshold:      cfg.LongThreshold,
		ShortThreshold:     cfg.ShortThreshold,
		CooldownCandles:    cfg.CooldownCandles,
		RegimeEvaluator:    regimeEvaluatorName(cfg.Evaluations),
		RegimeTimeframe:    cfg.RegimeTimeframe,
		FetchNote:          matrix.Note,
		SignalStateChange:  signalStateChangeFunc,
		PersistStateChange: persistStateChangeFunc,
		RecordWithheld: func(market string) {
			pipelineMetrics.WithheldTotal.WithLabelValues(market).Inc()
		},
		RecordTransition: func(market string, state shared.TradingState) {
			pipelineMetrics.TransitionsTotal.WithLabelValues(market, state.String()).Inc()
		},
		Logger: strategyMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating strategy manager: %w", err)
	}

	exchangeClient := fetch.NewClient(&fetch.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
	})

	caughtUpFunc := func(signal shared.CaughtUpSignal) {
		logger.Info().Msgf("%s caught up on historical data", signal.Market)
	}

	fetchMgrLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		ExchangeClient: exchangeClient,
		Markets:        cfg.Markets,
		Timeframes:     timeframes,
		SignalCaughtUp: caughtUpFunc,
		Logger:         fetchMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fetch manager: %w", err)
	}

	streamLogger := logger.With().Str("component", "stream").Logger()
	stream, err := fetch.NewStream(&fetch.StreamConfig{
		URL:        cfg.WebsocketURL,
		Markets:    cfg.Markets,
		Timeframes: timeframes,
		Notify:     fetchMgr.SendMarketUpdate,
		RecordReconnect: func() {
			pipelineMetrics.StreamReconnects.Inc()
		},
		Logger: streamLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating candle stream: %w", err)
	}

	updates := make(chan shared.Candlestick, 64)
	fetchMgr.Subscribe(&updates)

	service := &Scalper{
		cfg:              cfg,
		fetchManager:     fetchMgr,
		stream:           stream,
		evaluatorManager: evaluatorMgr,
		strategyManager:  strategyMgr,
		db:               db,
		metrics:          pipelineMetrics,
		metricsServer:    metricsServer,
		matrix:           matrix,
		updates:          updates,
		timeframes:       timeframes,
		logger:           &logger,
	}

	return service, nil
}

// regimeEvaluatorName returns the regime evaluator's name when one is
// configured, gating decisions on market regime.
func regimeEvaluatorName(evaluations map[shared.Timeframe]string) string {
	for _, name := range evaluations {
		if name == evaluator.RangeRegimeName {
			return name
		}
	}

	return ""
}

// pumpUpdates forwards fanned out candles to the evaluation pipeline.
func (s *Scalper) pumpUpdates(ctx context.Context) {
	for {
		select {
		case candle := <-s.updates:
			s.metrics.CandlesTotal.WithLabelValues(candle.Market,
				candle.Timeframe.String()).Inc()
			s.evaluatorManager.SendMarketUpdate(candle)
		case <-ctx.Done():
			return
		}
	}
}

// catchUp signals a historical catch up for all tracked markets.
func (s *Scalper) catchUp() {
	start := time.Now().Add(-catchUpLookback).UTC()
	for _, market := range s.cfg.Markets {
		s.fetchManager.SendCatchUpSignal(shared.NewCatchUpSignal(market, s.timeframes, start))
	}
}

// Run handles the lifecycle processes of the scalper service.
func (s *Scalper) Run(ctx context.Context) {
	s.wg.Add(6)

	go func() {
		s.strategyManager.Run(ctx)
		s.wg.Done()
	}()

	go func() {
		s.evaluatorManager.Run(ctx)
		s.wg.Done()
	}()

	go func() {
		s.fetchManager.Run(ctx)
		s.wg.Done()
	}()

	go func() {
		s.stream.Run(ctx)
		s.wg.Done()
	}()

	go func() {
		s.metricsServer.Run(ctx)
		s.wg.Done()
	}()

	go func() {
		s.pumpUpdates(ctx)
		s.wg.Done()
	}()

	s.catchUp()

	s.wg.Wait()
}
