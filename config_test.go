package main

import (
	"testing"

	"github.com/peterldowns/testy/assert"

	"scalper/shared"
)

func validTestConfig() *Config {
	cfg := &Config{
		Markets:          []string{"BTCUSDT"},
		APIKey:           "key",
		DatabaseEndpoint: "http://localhost:4001",
	}
	cfg.applyDefaults()

	return cfg
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, validTestConfig().Validate())

	// Ensure markets are required.
	cfg := validTestConfig()
	cfg.Markets = nil
	assert.Error(t, cfg.Validate())

	// Ensure the api key is required.
	cfg = validTestConfig()
	cfg.APIKey = ""
	assert.Error(t, cfg.Validate())

	// Ensure the database endpoint is required.
	cfg = validTestConfig()
	cfg.DatabaseEndpoint = ""
	assert.Error(t, cfg.Validate())

	// Ensure malformed evaluations are rejected.
	cfg = validTestConfig()
	cfg.Evaluations = "1m=emacross"
	assert.Error(t, cfg.Validate())

	// Ensure unknown timeframes are rejected.
	cfg = validTestConfig()
	cfg.Weights = "2m:1"
	assert.Error(t, cfg.Validate())

	// Ensure the decision thresholds are bounded.
	cfg = validTestConfig()
	cfg.LongThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = validTestConfig()
	cfg.ShortThreshold = 0.5
	assert.Error(t, cfg.Validate())
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	// Ensure unset values receive their defaults.
	assert.Equal(t, cfg.Exchange, defaultExchange)
	assert.Equal(t, cfg.BaseURL, defaultBaseURL)
	assert.Equal(t, cfg.Evaluations, defaultEvaluations)
	assert.Equal(t, cfg.Weights, defaultWeights)
	assert.Equal(t, cfg.DecisionTimeframe, defaultDecisionTimeframe)
	assert.Equal(t, cfg.LongThreshold, defaultLongThreshold)
	assert.Equal(t, cfg.ShortThreshold, defaultShortThreshold)
	assert.Equal(t, cfg.CooldownCandles, defaultCooldownCandles)
	assert.Equal(t, cfg.MetricsAddr, defaultMetricsAddr)

	// Ensure provided values are preserved.
	cfg = &Config{Exchange: "deribit", CooldownCandles: 5}
	cfg.applyDefaults()
	assert.Equal(t, cfg.Exchange, "deribit")
	assert.Equal(t, cfg.CooldownCandles, 5)
}

func TestConfigParsing(t *testing.T) {
	cfg := validTestConfig()

	// Ensure the default evaluations parse to their timeframes.
	evaluations, err := cfg.ParseEvaluations()
	assert.NoError(t, err)
	assert.Equal(t, evaluations[shared.OneMinute], "emacross")
	assert.Equal(t, evaluations[shared.ThreeMinute], "trendscore")
	assert.Equal(t, evaluations[shared.FiveMinute], "pullback")
	assert.Equal(t, evaluations[shared.FifteenMinute], "rangeregime")

	// Ensure the default weights parse to their timeframes.
	weights, err := cfg.ParseWeights()
	assert.NoError(t, err)
	assert.Equal(t, weights[shared.OneMinute], 0.5)
	assert.Equal(t, weights[shared.ThreeMinute], 0.3)
	assert.Equal(t, weights[shared.FiveMinute], 0.2)

	// Ensure non-numeric weights are rejected.
	cfg.Weights = "1m:heavy"
	_, err = cfg.ParseWeights()
	assert.Error(t, err)
}
