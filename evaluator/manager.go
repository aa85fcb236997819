package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"scalper/shared"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64

	// defaultSnapshotSize is the default candle capacity per instance.
	defaultSnapshotSize = 512
)

// Subscription pairs a timeframe with the evaluator scoring it.
type Subscription struct {
	// Timeframe is the candle timeframe being scored.
	Timeframe shared.Timeframe
	// Evaluator is the scoring strategy applied to the timeframe.
	Evaluator Evaluator
	// PersistenceWindow is the size of the persistence filter window.
	// A zero window disables persistence filtering.
	PersistenceWindow int
	// PersistenceMinimum is the required signal recurrence within the window.
	PersistenceMinimum int
}

// ManagerConfig represents the evaluation manager configuration.
type ManagerConfig struct {
	// Exchange is the name of the exchange candles originate from.
	Exchange string
	// Markets is the collection of tracked markets.
	Markets []string
	// Subscriptions is the collection of timeframe evaluations applied to
	// every tracked market.
	Subscriptions []Subscription
	// SnapshotSize is the candle capacity per evaluation instance. Defaults
	// to defaultSnapshotSize when unset.
	SnapshotSize int32
	// SetNote publishes the provided note to the evaluation matrix.
	SetNote func(exchange string, market string, timeframe shared.Timeframe, evaluator string, note shared.Note)
	// RelayNote relays the provided note signal for aggregation.
	RelayNote func(signal shared.NoteSignal)
	// RecordEvaluation records an evaluation outcome for instrumentation.
	RecordEvaluation func(market string, timeframe shared.Timeframe, pending bool, duration time.Duration)
	// Logger represents the application logger.
	Logger zerolog.Logger
}

// instance is a single market and timeframe evaluation unit. Each instance
// owns its candle snapshot and persistence filter and is driven by a
// dedicated worker.
type instance struct {
	market    string
	timeframe shared.Timeframe
	evaluator Evaluator
	snapshot  *shared.CandlestickSnapshot
	filter    *PersistenceFilter
	// lastEvaluated is the timestamp of the newest closed candle already
	// scored, guarding redelivered candles from re-entering the filter.
	lastEvaluated int64
}

// Manager manages the lifecycle processes of all evaluation instances.
type Manager struct {
	cfg           *ManagerConfig
	instances     map[string]*instance
	updateSignals chan shared.Candlestick
	workers       map[string]chan struct{}
}

// instanceKey generates the lookup key for a market and timeframe instance.
func instanceKey(market string, timeframe shared.Timeframe) string {
	return fmt.Sprintf("%s:%s", market, timeframe.String())
}

// NewManager initializes a new evaluation manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if len(cfg.Markets) == 0 {
		return nil, fmt.Errorf("no markets provided for evaluation")
	}
	if len(cfg.Subscriptions) == 0 {
		return nil, fmt.Errorf("no timeframe subscriptions provided for evaluation")
	}

	size := cfg.SnapshotSize
	if size == 0 {
		size = defaultSnapshotSize
	}

	instances := make(map[string]*instance)
	workers := make(map[string]chan struct{})
	for _, market := range cfg.Markets {
		for idx := range cfg.Subscriptions {
			sub := cfg.Subscriptions[idx]
			if sub.Evaluator == nil {
				return nil, fmt.Errorf("no evaluator provided for %s %s subscription",
					market, sub.Timeframe.String())
			}
			if int(size) < sub.Evaluator.WarmupCandles() {
				return nil, fmt.Errorf("snapshot size %d below %s warmup %d",
					size, sub.Evaluator.Name(), sub.Evaluator.WarmupCandles())
			}

			snapshot, err := shared.NewCandlestickSnapshot(size, sub.Timeframe)
			if err != nil {
				return nil, fmt.Errorf("creating candlestick snapshot: %w", err)
			}

			var filter *PersistenceFilter
			if sub.PersistenceWindow > 0 {
				filter, err = NewPersistenceFilter(sub.PersistenceWindow, sub.PersistenceMinimum)
				if err != nil {
					return nil, fmt.Errorf("creating persistence filter: %w", err)
				}
			}

			key := instanceKey(market, sub.Timeframe)
			instances[key] = &instance{
				market:    market,
				timeframe: sub.Timeframe,
				evaluator: sub.Evaluator,
				snapshot:  snapshot,
				filter:    filter,
			}
			workers[key] = make(chan struct{}, 1)
		}
	}

	return &Manager{
		cfg:           cfg,
		instances:     instances,
		updateSignals: make(chan shared.Candlestick, bufferSize),
		workers:       workers,
	}, nil
}

// SendMarketUpdate relays the provided candlestick for processing.
func (m *Manager) SendMarketUpdate(candle shared.Candlestick) {
	select {
	case m.updateSignals <- candle:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("market update channel at capacity: %d/%d",
			len(m.updateSignals), bufferSize)
	}
}

// evaluate runs the instance's evaluator, degrading panics to a pending note.
func (m *Manager) evaluate(in *instance, data *CandleData) (note shared.Note) {
	defer func() {
		if r := recover(); r != nil {
			m.cfg.Logger.Error().Msgf("recovered from %s evaluation of %s %s: %v",
				in.evaluator.Name(), in.market, in.timeframe.String(), r)
			note = shared.PendingNote()
		}
	}()

	return in.evaluator.Evaluate(data)
}

// handleUpdateCandle processes the provided market update candle.
func (m *Manager) handleUpdateCandle(candle *shared.Candlestick) {
	in, ok := m.instances[instanceKey(candle.Market, candle.Timeframe)]
	if !ok {
		// The candle is for a timeframe with no subscribed evaluation.
		return
	}

	err := in.snapshot.Update(candle)
	if err != nil {
		m.cfg.Logger.Error().Msgf("updating %s %s snapshot: %v", candle.Market,
			candle.Timeframe.String(), err)
		return
	}

	// Scores are produced on closed candles only.
	if !candle.Closed {
		return
	}

	// Historical backfills redeliver the newest closed candle. Scoring it
	// again would double-count its signal in the persistence window and
	// drive a spurious decision cycle.
	if candle.Timestamp <= in.lastEvaluated {
		return
	}
	in.lastEvaluated = candle.Timestamp

	count := in.snapshot.Count()
	data := &CandleData{
		Close:  in.snapshot.Closes(count, false),
		High:   in.snapshot.Highs(count, false),
		Low:    in.snapshot.Lows(count, false),
		Volume: in.snapshot.Volumes(count, false),
	}

	start := time.Now()
	note := m.evaluate(in, data)

	// Pending cycles leave the persistence filter untouched.
	if in.filter != nil && !note.IsPending() {
		raw := note.Signal()
		persisted := in.filter.Apply(raw)
		if raw != shared.RawNone && !persisted {
			note = shared.NewNote(0)
		}
	}

	if m.cfg.RecordEvaluation != nil {
		m.cfg.RecordEvaluation(in.market, in.timeframe, note.IsPending(), time.Since(start))
	}

	m.cfg.SetNote(m.cfg.Exchange, in.market, in.timeframe, in.evaluator.Name(), note)

	signal := shared.NewNoteSignal(m.cfg.Exchange, in.market, in.timeframe,
		in.evaluator.Name(), note, candle.Timestamp)
	m.cfg.RelayNote(signal)
}

// Run manages the lifecycle processes of the evaluation manager.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case candle := <-m.updateSignals:
			key := instanceKey(candle.Market, candle.Timeframe)
			worker, ok := m.workers[key]
			if !ok {
				continue
			}

			// use the dedicated instance worker to handle the update signal,
			// serializing candle processing per instance.
			worker <- struct{}{}
			go func(candle *shared.Candlestick) {
				m.handleUpdateCandle(candle)
				<-worker
			}(&candle)
		case <-ctx.Done():
			m.cfg.Logger.Info().Msg("evaluation manager done")
			return
		}
	}
}
