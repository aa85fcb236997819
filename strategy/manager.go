package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"scalper/shared"
)

// bufferSize is the default buffer size for channels.
const bufferSize = 64

// ManagerConfig represents the strategy manager configuration.
type ManagerConfig struct {
	// Exchange is the name of the exchange candles originate from.
	Exchange string
	// Markets is the collection of tracked markets.
	Markets []string
	// Weights maps each aggregated timeframe to its decision weight.
	Weights map[shared.Timeframe]float64
	// DecisionTimeframe is the timeframe whose notes drive decision cycles.
	// Notes for other timeframes only refresh the aggregate.
	DecisionTimeframe shared.Timeframe
	// LongThreshold is the decision value above which a long state is targeted.
	LongThreshold float64
	// ShortThreshold is the decision value below which a short state is
	// targeted.
	ShortThreshold float64
	// CooldownCandles is the number of candles that must elapse after a
	// directional exit before a new directional entry.
	CooldownCandles int
	// RegimeEvaluator is the name of the regime evaluator gating decisions.
	// An empty name disables regime gating.
	RegimeEvaluator string
	// RegimeTimeframe is the timeframe the regime evaluator scores.
	RegimeTimeframe shared.Timeframe
	// FetchNote fetches the latest note for the provided evaluation from the
	// evaluation matrix.
	FetchNote func(exchange string, market string, timeframe shared.Timeframe, evaluator string) (shared.Note, error)
	// SignalStateChange relays a confirmed state change to the execution
	// collaborator.
	SignalStateChange func(change shared.StateChange)
	// PersistStateChange persists the provided state change to the database.
	PersistStateChange func(change *shared.StateChange) error
	// RecordWithheld records a withheld decision cycle for instrumentation.
	RecordWithheld func(market string)
	// RecordTransition records a confirmed transition for instrumentation.
	RecordTransition func(market string, state shared.TradingState)
	// Logger represents the application logger.
	Logger zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *ManagerConfig) Validate() error {
	if len(cfg.Markets) == 0 {
		return fmt.Errorf("no markets provided for strategy")
	}
	if _, ok := cfg.Weights[cfg.DecisionTimeframe]; !ok {
		return fmt.Errorf("decision timeframe %s has no aggregation weight",
			cfg.DecisionTimeframe.String())
	}

	return nil
}

// machine is a single market's decision pipeline.
type machine struct {
	aggregator   *Aggregator
	stateMachine *StateMachine
}

// Manager manages the decision pipelines of all tracked markets.
type Manager struct {
	cfg         *ManagerConfig
	machines    map[string]*machine
	noteSignals chan shared.NoteSignal
	workers     map[string]chan struct{}
}

// NewManager initializes a new strategy manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating strategy manager config: %w", err)
	}

	machines := make(map[string]*machine, len(cfg.Markets))
	workers := make(map[string]chan struct{}, len(cfg.Markets))
	for _, market := range cfg.Markets {
		aggregator, err := NewAggregator(&AggregatorConfig{Weights: cfg.Weights})
		if err != nil {
			return nil, fmt.Errorf("creating aggregator: %w", err)
		}

		stateMachine, err := NewStateMachine(&StateMachineConfig{
			LongThreshold:   cfg.LongThreshold,
			ShortThreshold:  cfg.ShortThreshold,
			CooldownCandles: cfg.CooldownCandles,
		})
		if err != nil {
			return nil, fmt.Errorf("creating state machine: %w", err)
		}

		machines[market] = &machine{
			aggregator:   aggregator,
			stateMachine: stateMachine,
		}
		workers[market] = make(chan struct{}, 1)
	}

	return &Manager{
		cfg:         cfg,
		machines:    machines,
		noteSignals: make(chan shared.NoteSignal, bufferSize),
		workers:     workers,
	}, nil
}

// SendNote relays the provided note signal for processing.
func (m *Manager) SendNote(signal shared.NoteSignal) {
	select {
	case m.noteSignals <- signal:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("note signal channel at capacity: %d/%d",
			len(m.noteSignals), bufferSize)
	}
}

// CurrentState returns the current trading state for the provided market.
func (m *Manager) CurrentState(market string) (shared.TradingState, error) {
	mac, ok := m.machines[market]
	if !ok {
		return shared.StateNeutral, fmt.Errorf("no machine found for market %s", market)
	}

	return mac.stateMachine.Current(), nil
}

// regimePermits reports whether the market regime permits acting on decisions.
func (m *Manager) regimePermits(market string) bool {
	if m.cfg.RegimeEvaluator == "" {
		return true
	}

	note, err := m.cfg.FetchNote(m.cfg.Exchange, market, m.cfg.RegimeTimeframe,
		m.cfg.RegimeEvaluator)
	if err != nil || note.IsPending() {
		// An unknown regime suppresses decisions.
		return false
	}

	return note.Value() == 1
}

// handleNoteSignal processes the provided note signal.
func (m *Manager) handleNoteSignal(signal *shared.NoteSignal) {
	defer func() {
		select {
		case signal.Status <- shared.Processed:
			// do nothing.
		default:
			// do nothing.
		}
	}()

	mac, ok := m.machines[signal.Market]
	if !ok {
		m.cfg.Logger.Error().Msgf("no machine found for market %s", signal.Market)
		return
	}

	mac.aggregator.SetNote(signal.Timeframe, signal.Note)

	// Decision cycles run once per decision timeframe candle.
	if signal.Timeframe != m.cfg.DecisionTimeframe {
		return
	}

	decision, ok := mac.aggregator.Decision()
	if !ok {
		// At least one timeframe has yet to report.
		return
	}

	if !m.regimePermits(signal.Market) {
		// Withheld cycles leave hysteresis and cooldown untouched.
		m.cfg.Logger.Debug().Msgf("%s decision %.4f withheld by regime",
			signal.Market, decision.Value)
		if m.cfg.RecordWithheld != nil {
			m.cfg.RecordWithheld(signal.Market)
		}
		return
	}

	outcome, previous := mac.stateMachine.Apply(decision.Value)
	switch outcome {
	case OutcomeTransition:
		current := mac.stateMachine.Current()
		// The change is stamped with the candle that produced it, not
		// the wall clock.
		change := shared.NewStateChange(signal.Market, previous, current,
			decision.Value, decision.Contributions, time.Unix(signal.Timestamp, 0).UTC())

		m.cfg.Logger.Info().Msgf("%s state change: %s -> %s (decision %.4f)",
			signal.Market, previous.String(), current.String(), decision.Value)

		if m.cfg.RecordTransition != nil {
			m.cfg.RecordTransition(signal.Market, current)
		}

		m.cfg.SignalStateChange(change)

		err := m.cfg.PersistStateChange(&change)
		if err != nil {
			m.cfg.Logger.Error().Msgf("persisting %s state change: %v", signal.Market, err)
		}
	case OutcomeWithheld:
		m.cfg.Logger.Error().Msgf("%s decision %v withheld as malformed",
			signal.Market, decision.Value)
		if m.cfg.RecordWithheld != nil {
			m.cfg.RecordWithheld(signal.Market)
		}
	case OutcomeFlipRejected:
		m.cfg.Logger.Debug().Msgf("%s direct flip rejected at decision %.4f",
			signal.Market, decision.Value)
	case OutcomeCooldown:
		m.cfg.Logger.Debug().Msgf("%s directional entry blocked by cooldown at decision %.4f",
			signal.Market, decision.Value)
	}
}

// Run manages the lifecycle processes of the strategy manager.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case signal := <-m.noteSignals:
			worker, ok := m.workers[signal.Market]
			if !ok {
				m.cfg.Logger.Error().Msgf("no worker found for market %s", signal.Market)
				continue
			}

			// use the dedicated market worker to handle the note signal,
			// serializing decision cycles per market.
			worker <- struct{}{}
			go func(signal *shared.NoteSignal) {
				m.handleNoteSignal(signal)
				<-worker
			}(&signal)
		case <-ctx.Done():
			m.cfg.Logger.Info().Msg("strategy manager done")
			return
		}
	}
}
