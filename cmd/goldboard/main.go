package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"GoldBoard/internal/cache"
	"GoldBoard/internal/collector"
	"GoldBoard/internal/config"
	"GoldBoard/internal/dashboard"
	"GoldBoard/internal/model"
	"GoldBoard/internal/scheduler"
	"GoldBoard/internal/sentiment"
)

func newLogger(level zerolog.Level) zerolog.Logger {
	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func main() {
	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := newLogger(zerolog.InfoLevel)
		boot.Fatal().Err(err).Str("path", cfgPath).Msg("load config")
	}
	logger := newLogger(cfg.Level())
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}
	logger.Info().Str("config", cfgPath).Msg("GoldBoard starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Summarizer
	var summarizer sentiment.Summarizer = sentiment.Disabled{}
	if cfg.Sentiment.APIKey != "" {
		sentLog := logger.With().Str("component", "sentiment").Logger()
		summarizer = sentiment.NewGeminiClient(sentiment.GeminiConfig{
			APIKey:    cfg.Sentiment.APIKey,
			Model:     cfg.Sentiment.Model,
			BaseURL:   cfg.Sentiment.BaseURL,
			Language:  cfg.Sentiment.Language,
			Grounding: *cfg.Sentiment.Grounding,
			Retries:   cfg.Sentiment.Retries,
			Timeout:   cfg.Sentiment.Timeout,
			Proxy:     cfg.Proxy,
			Logger:    &sentLog,
		})
	} else {
		logger.Warn().Msg("no sentiment api key configured, market analysis disabled")
	}
	logger.Info().Str("summarizer", summarizer.Name()).Msg("sentiment source ready")

	// Market data source
	collectorLog := logger.With().Str("component", "collector").Logger()
	source, err := collector.NewSource(collector.SourceConfig{
		PriceFeed:        collector.NewGoldAPIFeed(cfg.Feeds.GoldPriceURL, cfg.Proxy, cfg.Feeds.RequestTimeout),
		RateFeed:         collector.NewExchangeRateFeed(cfg.Feeds.ExchangeRateURL, cfg.Proxy, cfg.Feeds.RequestTimeout),
		Summarizer:       summarizer,
		Synth:            collector.NewRandomSynth(cfg.SyntheticSeed),
		Currencies:       model.SelectCurrencies(cfg.Display.Currencies),
		RequestTimeout:   cfg.Feeds.RequestTimeout,
		SentimentTimeout: cfg.Sentiment.Timeout,
		Logger:           &collectorLog,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init market data source")
	}

	// Snapshot cache
	store, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		logger.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("open cache store failed, using noop")
		store = cache.NewNoopStore()
	}
	defer store.Close()
	cacheLog := logger.With().Str("component", "cache").Logger()
	snapshots := cache.New(store, cfg.Cache.Key, &cacheLog)

	// Dashboard and refresh controller
	consoleLog := logger.With().Str("component", "console").Logger()
	console := dashboard.NewConsole(os.Stdout, cfg.Selection(), &consoleLog)

	schedLog := logger.With().Str("component", "scheduler").Logger()
	ctrl, err := scheduler.NewController(ctx, scheduler.ControllerConfig{
		Source:   source,
		Cache:    snapshots,
		Interval: cfg.Refresh.Interval,
		Cooldown: cfg.Refresh.Cooldown,
		OnChange: console.OnChange,
		Logger:   &schedLog,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init refresh controller")
	}
	console.Attach(ctrl)
	console.Show()

	ctrl.Start(ctx)
	defer ctrl.Stop()

	logger.Info().Msg("GoldBoard is running. Type \"help\" for commands, Ctrl+C to stop.")

	if isatty.IsTerminal(os.Stdin.Fd()) {
		if err := console.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("console stopped with error")
		}
	} else {
		// No viewer to read commands from; keep refreshing until signalled.
		<-ctx.Done()
	}

	stop()
	logger.Info().Msg("shutting down")
}
