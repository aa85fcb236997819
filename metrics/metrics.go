// Package metrics exposes prometheus instrumentation for the decision
// pipeline.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds all prometheus metrics for the decision pipeline.
type Metrics struct {
	CandlesTotal       *prometheus.CounterVec
	EvaluationsTotal   *prometheus.CounterVec
	PendingTotal       *prometheus.CounterVec
	TransitionsTotal   *prometheus.CounterVec
	WithheldTotal      *prometheus.CounterVec
	StreamReconnects   prometheus.Counter
	EvaluationDuration prometheus.Histogram
	CurrentState       *prometheus.GaugeVec
}

// NewMetrics registers and returns all prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CandlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_candles_total",
			Help: "Total candles processed per market and timeframe",
		}, []string{"market", "timeframe"}),
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_evaluations_total",
			Help: "Total evaluations performed per market and timeframe",
		}, []string{"market", "timeframe"}),
		PendingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_pending_evaluations_total",
			Help: "Total evaluations degraded to a pending note",
		}, []string{"market", "timeframe"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_state_transitions_total",
			Help: "Total confirmed state transitions per market and state",
		}, []string{"market", "state"}),
		WithheldTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_withheld_decisions_total",
			Help: "Total decision cycles withheld per market",
		}, []string{"market"}),
		StreamReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_stream_reconnects_total",
			Help: "Total candle stream reconnection attempts",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scalper_evaluation_duration_seconds",
			Help:    "Evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		CurrentState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scalper_current_state",
			Help: "Current trading state per market (0=neutral, 1=long, -1=short)",
		}, []string{"market"}),
	}

	prometheus.MustRegister(
		m.CandlesTotal,
		m.EvaluationsTotal,
		m.PendingTotal,
		m.TransitionsTotal,
		m.WithheldTotal,
		m.StreamReconnects,
		m.EvaluationDuration,
		m.CurrentState,
	)

	return m
}

// RecordEvaluation records the outcome of a single evaluation.
func (m *Metrics) RecordEvaluation(market string, timeframe string, pending bool, duration time.Duration) {
	m.EvaluationsTotal.WithLabelValues(market, timeframe).Inc()
	if pending {
		m.PendingTotal.WithLabelValues(market, timeframe).Inc()
	}
	m.EvaluationDuration.Observe(duration.Seconds())
}

// Server runs an http server exposing /metrics.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates a metrics server.
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger,
	}
}

// Run manages the lifecycle processes of the metrics server.
func (s *Server) Run(ctx context.Context) {
	go func() {
		s.logger.Info().Msgf("metrics server listening on %s", s.srv.Addr)
		err := s.srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Msgf("metrics server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := s.srv.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Error().Msgf("shutting down metrics server: %v", err)
	}
}
