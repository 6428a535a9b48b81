package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderKindChart is the Yahoo chart-API client (price, 1y return, dividend yield).
// ProviderKindQuote is the lighter finance-go client (price, dividend yield only).
const (
	ProviderKindChart = "yahoo-chart"
	ProviderKindQuote = "yahoo-quote"
)

type Provider struct {
	Kind           string        `yaml:"kind"`
	BaseURL        string        `yaml:"base_url"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	MaxPerMinute   int           `yaml:"max_per_minute"`
	Burst          int           `yaml:"burst"`
}

type Config struct {
	HTTPPort       int           `yaml:"http_port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	UniversePath   string        `yaml:"universe_path"`
	RedisURL       string        `yaml:"redis_url"`
	MaxSymbols     int           `yaml:"max_symbols"`
	Provider       Provider      `yaml:"provider"`
}

func defaults() *Config {
	return &Config{
		HTTPPort:       8080,
		RequestTimeout: 15 * time.Second,
		UniversePath:   "data/universe.csv",
		MaxSymbols:     100,
		Provider: Provider{
			Kind:           ProviderKindChart,
			BaseURL:        "https://query1.finance.yahoo.com",
			FetchTimeout:   5 * time.Second,
			MaxConcurrency: 8,
			CacheTTL:       10 * time.Minute,
			MaxPerMinute:   120,
			Burst:          20,
		},
	}
}

// Load reads the YAML config file (if present), then applies flag and
// environment variable overrides, and validates the result. A fresh FlagSet
// is used so we don't collide with `go test` flags.
func Load() (*Config, error) {
	cfg := defaults()

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config file")
	port := fs.Int("port", 0, "HTTP listen port (overrides config file)")
	universe := fs.String("universe", "", "path to universe CSV (overrides config file)")

	var appArgs []string
	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "-test.") {
			continue
		}
		appArgs = append(appArgs, arg)
	}
	if err := fs.Parse(appArgs); err != nil {
		return nil, err
	}

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if *port > 0 {
		cfg.HTTPPort = *port
	}
	if *universe != "" {
		cfg.UniversePath = *universe
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTPPort = n
		}
	}
	if v := os.Getenv("UNIVERSE_PATH"); v != "" {
		cfg.UniversePath = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("MAX_SYMBOLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSymbols = n
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("QUOTE_PROVIDER"); v != "" {
		cfg.Provider.Kind = v
	}
	if v := os.Getenv("QUOTE_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("QUOTE_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Provider.FetchTimeout = d
		}
	}
	if v := os.Getenv("QUOTE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Provider.CacheTTL = d
		}
	}
	if v := os.Getenv("QUOTE_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Provider.MaxConcurrency = n
		}
	}
	if v := os.Getenv("QUOTE_MAX_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Provider.MaxPerMinute = n
		}
	}
	if v := os.Getenv("QUOTE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Provider.Burst = n
		}
	}
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.UniversePath == "" {
		return fmt.Errorf("missing required config: universe_path")
	}
	switch c.Provider.Kind {
	case ProviderKindChart, ProviderKindQuote:
	default:
		return fmt.Errorf("unknown provider kind %q (want %s or %s)",
			c.Provider.Kind, ProviderKindChart, ProviderKindQuote)
	}
	if c.Provider.FetchTimeout <= 0 {
		return fmt.Errorf("provider fetch_timeout must be positive")
	}
	if c.Provider.MaxConcurrency <= 0 {
		return fmt.Errorf("provider max_concurrency must be positive")
	}
	return nil
}
