package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"GoldBoard/internal/cache"
	"GoldBoard/internal/collector"
	"GoldBoard/internal/model"
	"GoldBoard/internal/sentiment"
	"GoldBoard/internal/units"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Feeds struct {
		GoldPriceURL    string        `yaml:"gold_price_url"`
		ExchangeRateURL string        `yaml:"exchange_rate_url"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
	} `yaml:"feeds"`
	Sentiment struct {
		APIKey    string        `yaml:"api_key"`
		Model     string        `yaml:"model"`
		BaseURL   string        `yaml:"base_url"`
		Language  string        `yaml:"language"`
		Grounding *bool         `yaml:"grounding"`
		Retries   int           `yaml:"retries"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"sentiment"`
	Refresh struct {
		Interval time.Duration `yaml:"interval"`
		Cooldown time.Duration `yaml:"cooldown"`
	} `yaml:"refresh"`
	Cache struct {
		Backend       string `yaml:"backend"`
		Path          string `yaml:"path"`
		SQLitePath    string `yaml:"sqlite_path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		Key           string `yaml:"key"`
	} `yaml:"cache"`
	Display struct {
		Unit       string   `yaml:"unit"`
		Quantity   *float64 `yaml:"quantity"`
		Purity     string   `yaml:"purity"`
		Currencies []string `yaml:"currencies"`
	} `yaml:"display"`
	Proxy         string `yaml:"proxy"`
	LogLevel      string `yaml:"log_level"`
	SyntheticSeed uint64 `yaml:"synthetic_seed"`
}

// Load reads .env and the YAML file, then applies environment variable
// overrides and defaults. Both files are optional.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Sentiment.APIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" {
		c.Sentiment.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Cache.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
		}
		c.Refresh.Interval = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SYNTHETIC_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse SYNTHETIC_SEED: %w", err)
		}
		c.SyntheticSeed = seed
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Feeds.GoldPriceURL == "" {
		c.Feeds.GoldPriceURL = collector.DefaultGoldPriceURL
	}
	if c.Feeds.ExchangeRateURL == "" {
		c.Feeds.ExchangeRateURL = collector.DefaultExchangeRateURL
	}
	if c.Feeds.RequestTimeout == 0 {
		c.Feeds.RequestTimeout = 10 * time.Second
	}
	if c.Sentiment.Model == "" {
		c.Sentiment.Model = sentiment.DefaultModel
	}
	if c.Sentiment.BaseURL == "" {
		c.Sentiment.BaseURL = sentiment.DefaultBaseURL
	}
	if c.Sentiment.Language == "" {
		c.Sentiment.Language = "Bengali"
	}
	if c.Sentiment.Grounding == nil {
		on := true
		c.Sentiment.Grounding = &on
	}
	if c.Sentiment.Timeout == 0 {
		c.Sentiment.Timeout = 30 * time.Second
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 5 * time.Minute
	}
	if c.Refresh.Cooldown == 0 {
		c.Refresh.Cooldown = 10 * time.Second
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = cache.BackendFile
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "data"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/goldboard.db"
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
	if c.Cache.Key == "" {
		c.Cache.Key = cache.DefaultKey
	}
	if c.Display.Unit == "" {
		c.Display.Unit = string(units.Vori)
	}
	if c.Display.Quantity == nil {
		one := 1.0
		c.Display.Quantity = &one
	}
	if c.Display.Purity == "" {
		c.Display.Purity = units.K24.String()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs error
	if c.Feeds.RequestTimeout < 0 {
		errs = errors.Join(errs, fmt.Errorf("feeds.request_timeout cannot be negative"))
	}
	if c.Sentiment.Retries < 0 {
		errs = errors.Join(errs, fmt.Errorf("sentiment.retries cannot be negative"))
	}
	if c.Sentiment.Timeout < 0 {
		errs = errors.Join(errs, fmt.Errorf("sentiment.timeout cannot be negative"))
	}
	if c.Refresh.Interval < time.Second {
		errs = errors.Join(errs, fmt.Errorf("refresh.interval must be at least 1s, got %s", c.Refresh.Interval))
	}
	if c.Refresh.Cooldown < 0 {
		errs = errors.Join(errs, fmt.Errorf("refresh.cooldown cannot be negative"))
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendSQLite, cache.BackendRedis, cache.BackendNone:
	default:
		errs = errors.Join(errs, fmt.Errorf("cache.backend %q is not one of file, sqlite, redis, none", c.Cache.Backend))
	}
	if strings.TrimSpace(c.Cache.Key) == "" {
		errs = errors.Join(errs, fmt.Errorf("cache.key cannot be empty"))
	}
	if _, err := units.ParseUnit(c.Display.Unit); err != nil {
		errs = errors.Join(errs, fmt.Errorf("display.unit: %w", err))
	}
	if c.Display.Quantity != nil && *c.Display.Quantity < 0 {
		errs = errors.Join(errs, fmt.Errorf("display.quantity cannot be negative"))
	}
	if _, err := units.ParsePurity(c.Display.Purity); err != nil {
		errs = errors.Join(errs, fmt.Errorf("display.purity: %w", err))
	}
	for _, code := range c.Display.Currencies {
		if _, ok := model.LookupCurrency(code); !ok {
			errs = errors.Join(errs, fmt.Errorf("display.currencies: unknown currency %q", code))
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = errors.Join(errs, fmt.Errorf("log_level: %w", err))
	}
	return errs
}

// Selection returns the initial unit selection. Call after Validate.
func (c *Config) Selection() units.Selection {
	sel := units.DefaultSelection()
	if u, err := units.ParseUnit(c.Display.Unit); err == nil {
		sel.Unit = u
	}
	if p, err := units.ParsePurity(c.Display.Purity); err == nil {
		sel.Purity = p
	}
	if c.Display.Quantity != nil {
		sel.Quantity = *c.Display.Quantity
	}
	return sel
}

// CacheOptions maps the cache section onto store options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:       c.Cache.Backend,
		Path:          c.Cache.Path,
		SQLitePath:    c.Cache.SQLitePath,
		RedisAddr:     c.Cache.RedisAddr,
		RedisPassword: c.Cache.RedisPassword,
		RedisDB:       c.Cache.RedisDB,
	}
}

// Level returns the parsed log level, info when unparsable.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
