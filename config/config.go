package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"banknifty-backtest/internal/backtest"
	"banknifty-backtest/internal/strategy"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Angel One credentials (paper trading only; backtests run offline)
	AngelAPIKey     string
	AngelClientCode string
	AngelPassword   string
	AngelTOTPSecret string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string

	// Instrument under test
	Symbol        string
	ExchangeToken string
	Exchange      string
}

// Load reads configuration from environment variables with sensible defaults.
// Credentials are only demanded by the paper trader; see LoadWithCreds.
func Load() *Config {
	return &Config{
		AngelAPIKey:     getEnv("ANGEL_API_KEY", ""),
		AngelClientCode: getEnv("ANGEL_CLIENT_CODE", ""),
		AngelPassword:   getEnv("ANGEL_PASSWORD", ""),
		AngelTOTPSecret: getEnv("ANGEL_TOTP_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/banknifty.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		// Default: Bank Nifty index on NSE
		Symbol:        getEnv("SYMBOL", "BANKNIFTY"),
		ExchangeToken: getEnv("EXCHANGE_TOKEN", "99926009"),
		Exchange:      getEnv("EXCHANGE", "NSE"),
	}
}

// LoadWithCreds is Load but with the broker credentials made mandatory.
// The paper trader cannot run without them.
func LoadWithCreds() *Config {
	cfg := Load()
	cfg.AngelAPIKey = mustEnv("ANGEL_API_KEY")
	cfg.AngelClientCode = mustEnv("ANGEL_CLIENT_CODE")
	cfg.AngelPassword = mustEnv("ANGEL_PASSWORD")
	cfg.AngelTOTPSecret = mustEnv("ANGEL_TOTP_SECRET")
	return cfg
}

// StrategyFile is the YAML layout for strategy parameter files. Exactly
// one strategy block must be present.
type StrategyFile struct {
	Momentum  *strategy.MomentumConfig  `yaml:"momentum,omitempty"`
	Crossover *strategy.CrossoverConfig `yaml:"crossover,omitempty"`
}

// LoadStrategy reads a strategy parameter file and builds the configured
// strategy. An empty path falls back to the crossover defaults.
func LoadStrategy(path string) (strategy.Strategy, error) {
	if path == "" {
		return strategy.NewMACrossover(strategy.DefaultCrossoverConfig())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	var file StrategyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse strategy file %s: %w", path, err)
	}

	switch {
	case file.Momentum != nil && file.Crossover != nil:
		return nil, fmt.Errorf("%w: strategy file %s configures more than one strategy", strategy.ErrInvalidConfig, path)
	case file.Momentum != nil:
		return strategy.NewMomentumBreakout(*file.Momentum)
	case file.Crossover != nil:
		return strategy.NewMACrossover(*file.Crossover)
	default:
		return nil, fmt.Errorf("%w: strategy file %s configures no strategy", strategy.ErrInvalidConfig, path)
	}
}

// LoadSweep reads an optimizer sweep file.
func LoadSweep(path string) (backtest.OptimizeConfig, error) {
	var oc backtest.OptimizeConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return oc, fmt.Errorf("read sweep file: %w", err)
	}
	if err := yaml.Unmarshal(data, &oc); err != nil {
		return oc, fmt.Errorf("parse sweep file %s: %w", path, err)
	}
	return oc, nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
