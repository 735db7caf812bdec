// Package config loads the gapfade YAML configuration with .env and
// environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the gapfade platform.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Polygon  Polygon        `yaml:"polygon"`
	Logging  Logging        `yaml:"logging"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir     string `yaml:"data_dir"`     // parquet minute-bar cache root
	SQLitePath  string `yaml:"sqlite_path"`  // backtest results database
	JournalPath string `yaml:"journal_path"` // JSON trade ledger
}

// Server holds network listener configuration for gapfade-server.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"` // "sip" or "iex"
}

// Polygon holds credentials for the Polygon-style aggregates API.
type Polygon struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// BacktestConfig defines the short-strategy parameters and batch execution
// knobs. The strategy numbers default to the original rule: $6000 risk
// budget, stop at 1.15x entry, 30% opening tranche, $20,000 starting equity.
type BacktestConfig struct {
	InitialEquity   float64 `yaml:"initial_equity"`
	RiskBudget      float64 `yaml:"risk_budget"`
	StopMultiple    float64 `yaml:"stop_multiple"`
	InitialTranche  float64 `yaml:"initial_tranche"`
	EntryWindow     string  `yaml:"entry_window"` // "HH:MM-HH:MM"
	MaxWorkers      int     `yaml:"max_workers"`
	FetchRetries    int     `yaml:"fetch_retries"`
	RateLimitPerMin int     `yaml:"rate_limit_per_min"`
	Provider        string  `yaml:"provider"` // "alpaca" or "polygon"
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, applies
// environment overrides (including a .env file when present), and fills
// defaults for the backtest parameters.
func Load(path string) (*Config, error) {
	// A .env next to the binary is picked up silently when present.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("JOURNAL_PATH"); v != "" {
		cfg.Storage.JournalPath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Polygon.APIKey = v
	}
	if v := os.Getenv("POLYGON_BASE_URL"); v != "" {
		cfg.Polygon.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars take highest priority (names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// setDefaults fills zero-valued fields with the platform defaults.
func setDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "gapfade.db"
	}
	if cfg.Storage.JournalPath == "" {
		cfg.Storage.JournalPath = "trading_data.json"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Alpaca.Feed == "" {
		cfg.Alpaca.Feed = "sip"
	}
	if cfg.Polygon.BaseURL == "" {
		cfg.Polygon.BaseURL = "https://api.polygon.io"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	bt := &cfg.Backtest
	if bt.InitialEquity == 0 {
		bt.InitialEquity = 20000
	}
	if bt.RiskBudget == 0 {
		bt.RiskBudget = 6000
	}
	if bt.StopMultiple == 0 {
		bt.StopMultiple = 1.15
	}
	if bt.InitialTranche == 0 {
		bt.InitialTranche = 0.3
	}
	if bt.EntryWindow == "" {
		bt.EntryWindow = "09:35-09:45"
	}
	if bt.MaxWorkers == 0 {
		bt.MaxWorkers = 8
	}
	if bt.FetchRetries == 0 {
		bt.FetchRetries = 3
	}
	if bt.RateLimitPerMin == 0 {
		bt.RateLimitPerMin = 200
	}
	if bt.Provider == "" {
		bt.Provider = "alpaca"
	}
}
