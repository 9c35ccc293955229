package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "bnc.yaml"

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey   = "BINANCE_US_API_KEY"
	EnvLogLevel = "BNC_LOG_LEVEL"
)

// Config represents the top-level bnc.yaml configuration.
type Config struct {
	Binance   BinanceConfig   `yaml:"binance"`
	Valuation ValuationConfig `yaml:"valuation"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	RunLog    string          `yaml:"run_log,omitempty"`

	// APIKey only ever comes from the environment.
	APIKey string `yaml:"-"`
}

// BinanceConfig controls the price history client.
type BinanceConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	KlineInterval     string        `yaml:"kline_interval"`
}

// ValuationConfig controls USD valuation.
type ValuationConfig struct {
	QuoteAssets []string `yaml:"quote_assets"`
}

// CacheConfig controls price memoization.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a bnc.yaml file from disk. Fields it omits keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Binance: BinanceConfig{
			BaseURL:           "https://api.binance.us",
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RetryBackoff:      time.Second,
			RequestsPerSecond: 10,
			KlineInterval:     "1m",
		},
		Valuation: ValuationConfig{
			QuoteAssets: []string{"USD", "USDT", "BUSD"},
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ApplyEnv loads envFiles (missing files are skipped) without overriding
// variables already set, then applies the environment to cfg.
func (cfg *Config) ApplyEnv(envFiles ...string) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (cfg *Config) Validate() error {
	switch {
	case cfg.Binance.BaseURL == "":
		return errors.New("binance.base_url is empty")
	case cfg.Binance.Timeout <= 0:
		return fmt.Errorf("binance.timeout must be positive, got %s", cfg.Binance.Timeout)
	case cfg.Binance.MaxRetries < 0:
		return fmt.Errorf("binance.max_retries must not be negative, got %d", cfg.Binance.MaxRetries)
	case len(cfg.Valuation.QuoteAssets) == 0:
		return errors.New("valuation.quote_assets is empty")
	}
	for _, q := range cfg.Valuation.QuoteAssets {
		if q == "" || strings.ToUpper(q) != q {
			return fmt.Errorf("valuation.quote_assets: invalid symbol %q", q)
		}
	}
	return nil
}
