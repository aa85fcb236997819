package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"scalper/shared"
)

// Default configuration values applied when neither environment variables nor
// command line flags provide one.
const (
	defaultExchange           = "bybit"
	defaultBaseURL            = "https://api.bybit.com"
	defaultWebsocketURL       = "wss://stream.bybit.com/v5/public/linear"
	defaultEvaluations        = "1m:emacross,3m:trendscore,5m:pullback,15m:rangeregime"
	defaultWeights            = "1m:0.5,3m:0.3,5m:0.2"
	defaultDecisionTimeframe  = "1m"
	defaultRegimeTimeframe    = "15m"
	defaultLongThreshold      = 0.6
	defaultShortThreshold     = -0.6
	defaultCooldownCandles    = 3
	defaultPersistenceWindow  = 3
	defaultPersistenceMinimum = 2
	defaultMetricsAddr        = ":2112"
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the tracked markets.
	Markets []string
	// Exchange is the name of the exchange candles originate from.
	Exchange string
	// APIKey is the exchange service API Key.
	APIKey string
	// BaseURL is the base url of the exchange rest api.
	BaseURL string
	// WebsocketURL is the websocket url of the exchange candle stream.
	WebsocketURL string
	// Evaluations maps scored timeframes to evaluator names, as a comma
	// separated list of timeframe:name pairs.
	Evaluations string
	// Weights maps aggregated timeframes to decision weights, as a comma
	// separated list of timeframe:weight pairs.
	Weights string
	// DecisionTimeframe is the timeframe whose notes drive decision cycles.
	DecisionTimeframe string
	// RegimeTimeframe is the timeframe the regime evaluator scores.
	RegimeTimeframe string
	// LongThreshold is the decision value above which a long state is targeted.
	LongThreshold float64
	// ShortThreshold is the decision value below which a short state is targeted.
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

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for scalper service"))
	}
	if cfg.APIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("exchange api key cannot be an empty string"))
	}
	if cfg.DatabaseEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be an empty string"))
	}

	if _, err := cfg.ParseEvaluations(); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := cfg.ParseWeights(); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := shared.ParseTimeframe(cfg.DecisionTimeframe); err != nil {
		errs = errors.Join(errs, fmt.Errorf("parsing decision timeframe: %w", err))
	}
	if _, err := shared.ParseTimeframe(cfg.RegimeTimeframe); err != nil {
		errs = errors.Join(errs, fmt.Errorf("parsing regime timeframe: %w", err))
	}

	if cfg.LongThreshold <= 0 || cfg.LongThreshold > 1 {
		errs = errors.Join(errs, fmt.Errorf("long threshold must be within (0, 1], got %f",
			cfg.LongThreshold))
	}
	if cfg.ShortThreshold >= 0 || cfg.ShortThreshold < -1 {
		errs = errors.Join(errs, fmt.Errorf("short threshold must be within [-1, 0), got %f",
			cfg.ShortThreshold))
	}
	if cfg.CooldownCandles < 0 {
		errs = errors.Join(errs, fmt.Errorf("cooldown candles cannot be negative, got %d",
			cfg.CooldownCandles))
	}

	return errs
}

// parsePairs splits a comma separated list of timeframe:value pairs.
func parsePairs(list string, context string) (map[shared.Timeframe]string, error) {
	pairs := make(map[shared.Timeframe]string)
	for _, entry := range strings.Split(list, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed %s entry: %q", context, entry)
		}

		timeframe, err := shared.ParseTimeframe(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parsing %s timeframe: %w", context, err)
		}

		pairs[timeframe] = parts[1]
	}

	return pairs, nil
}

// ParseEvaluations parses the configured timeframe evaluations.
func (cfg *Config) ParseEvaluations() (map[shared.Timeframe]string, error) {
	return parsePairs(cfg.Evaluations, "evaluation")
}

// ParseWeights parses the configured timeframe weights.
func (cfg *Config) ParseWeights() (map[shared.Timeframe]float64, error) {
	pairs, err := parsePairs(cfg.Weights, "weight")
	if err != nil {
		return nil, err
	}

	weights := make(map[shared.Timeframe]float64, len(pairs))
	for timeframe, value := range pairs {
		weight, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing weight value %q: %w", value, err)
		}
		weights[timeframe] = weight
	}

	return weights, nil
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		var def float64
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// applyDefaults fills unset configuration values with their defaults.
func (cfg *Config) applyDefaults() {
	if cfg.Exchange == "" {
		cfg.Exchange = defaultExchange
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.WebsocketURL == "" {
		cfg.WebsocketURL = defaultWebsocketURL
	}
	if cfg.Evaluations == "" {
		cfg.Evaluations = defaultEvaluations
	}
	if cfg.Weights == "" {
		cfg.Weights = defaultWeights
	}
	if cfg.DecisionTimeframe == "" {
		cfg.DecisionTimeframe = defaultDecisionTimeframe
	}
	if cfg.RegimeTimeframe == "" {
		cfg.RegimeTimeframe = defaultRegimeTimeframe
	}
	if cfg.LongThreshold == 0 {
		cfg.LongThreshold = defaultLongThreshold
	}
	if cfg.ShortThreshold == 0 {
		cfg.ShortThreshold = defaultShortThreshold
	}
	if cfg.CooldownCandles == 0 {
		cfg.CooldownCandles = defaultCooldownCandles
	}
	if cfg.PersistenceWindow == 0 {
		cfg.PersistenceWindow = defaultPersistenceWindow
	}
	if cfg.PersistenceMinimum == 0 {
		cfg.PersistenceMinimum = defaultPersistenceMinimum
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = defaultMetricsAddr
	}
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("markets", &cfg.Markets, "the tracked markets")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("exchange", &cfg.Exchange, "the exchange name")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("apikey", &cfg.APIKey, "the exchange api key")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("baseurl", &cfg.BaseURL, "the exchange rest api base url")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("websocketurl", &cfg.WebsocketURL, "the exchange websocket url")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("evaluations", &cfg.Evaluations, "the timeframe evaluations")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("weights", &cfg.Weights, "the timeframe decision weights")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("decisiontimeframe", &cfg.DecisionTimeframe, "the decision timeframe")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("regimetimeframe", &cfg.RegimeTimeframe, "the regime timeframe")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("longthreshold", &cfg.LongThreshold, "the long decision threshold")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("shortthreshold", &cfg.ShortThreshold, "the short decision threshold")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("cooldowncandles", &cfg.CooldownCandles, "the directional entry cooldown in candles")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("persistencewindow", &cfg.PersistenceWindow, "the signal persistence window size")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("persistenceminimum", &cfg.PersistenceMinimum, "the signal persistence minimum")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("databaseendpoint", &cfg.DatabaseEndpoint, "the database endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("databaseuser", &cfg.DatabaseUser, "the database user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("databasepass", &cfg.DatabasePass, "the database pass")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("metricsaddr", &cfg.MetricsAddr, "the metrics server listen address")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	cfg.applyDefaults()

	return cfg.Validate()
}
