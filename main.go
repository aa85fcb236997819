package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"scalper/service"
	"scalper/shared"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evaluations, err := cfg.ParseEvaluations()
	if err != nil {
		log.Printf("parsing evaluations: %v", err)
		return
	}

	weights, err := cfg.ParseWeights()
	if err != nil {
		log.Printf("parsing weights: %v", err)
		return
	}

	decisionTimeframe, err := shared.ParseTimeframe(cfg.DecisionTimeframe)
	if err != nil {
		log.Printf("parsing decision timeframe: %v", err)
		return
	}

	regimeTimeframe, err := shared.ParseTimeframe(cfg.RegimeTimeframe)
	if err != nil {
		log.Printf("parsing regime timeframe: %v", err)
		return
	}

	scalperCfg := service.ScalperConfig{
		Markets:            cfg.Markets,
		Exchange:           cfg.Exchange,
		APIKey:             cfg.APIKey,
		BaseURL:            cfg.BaseURL,
		WebsocketURL:       cfg.WebsocketURL,
		Evaluations:        evaluations,
		Weights:            weights,
		DecisionTimeframe:  decisionTimeframe,
		RegimeTimeframe:    regimeTimeframe,
		LongThreshold:      cfg.LongThreshold,
		ShortThreshold:     cfg.ShortThreshold,
		CooldownCandles:    cfg.CooldownCandles,
		PersistenceWindow:  cfg.PersistenceWindow,
		PersistenceMinimum: cfg.PersistenceMinimum,
		DatabaseEndpoint:   cfg.DatabaseEndpoint,
		DatabaseUser:       cfg.DatabaseUser,
		DatabasePass:       cfg.DatabasePass,
		MetricsAddr:        cfg.MetricsAddr,
		Cancel:             cancel,
	}
	scalper, err := service.NewScalper(ctx, &scalperCfg)
	if err != nil {
		log.Printf("creating scalper service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	scalper.Run(ctx)
}
