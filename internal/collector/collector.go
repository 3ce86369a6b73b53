package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"GoldBoard/internal/model"
	"GoldBoard/internal/sentiment"
)

const (
	defaultRequestTimeout   = 10 * time.Second
	defaultSentimentTimeout = 30 * time.Second
)

// SourceConfig represents the configuration for the market data source.
type SourceConfig struct {
	// PriceFeed supplies the USD spot price.
	PriceFeed PriceFeed
	// RateFeed supplies USD-based exchange rates.
	RateFeed RateFeed
	// Summarizer supplies the optional sentiment summary.
	Summarizer sentiment.Summarizer
	// Synth generates demo history and 24h change values.
	Synth Synthesizer
	// Currencies are the currencies assembled into each snapshot.
	Currencies []model.Currency
	// RequestTimeout bounds the price and rate requests together.
	RequestTimeout time.Duration
	// SentimentTimeout bounds the summary request.
	SentimentTimeout time.Duration
	// Now returns the current time.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *SourceConfig) Validate() error {
	var errs error
	if cfg.PriceFeed == nil {
		errs = errors.Join(errs, fmt.Errorf("price feed cannot be nil"))
	}
	if cfg.RateFeed == nil {
		errs = errors.Join(errs, fmt.Errorf("rate feed cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}
	return errs
}

// Source orchestrates the feeds into a MarketSnapshot.
type Source struct {
	cfg SourceConfig
}

// NewSource creates a source, filling optional collaborators with defaults.
func NewSource(cfg SourceConfig) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Summarizer == nil {
		cfg.Summarizer = sentiment.Disabled{}
	}
	if cfg.Synth == nil {
		cfg.Synth = NewRandomSynth(0)
	}
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = model.Currencies
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.SentimentTimeout <= 0 {
		cfg.SentimentTimeout = defaultSentimentTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Source{cfg: cfg}, nil
}

// Fetch fetches the spot price and rates and assembles a snapshot. The only
// error it returns wraps model.ErrDataUnavailable.
func (s *Source) Fetch(ctx context.Context) (*model.MarketSnapshot, error) {
	log := s.cfg.Logger.With().Str("attempt", uuid.NewString()).Logger()

	base, rates, err := s.fetchCore(ctx)
	if err != nil {
		log.Error().Err(err).Msg("core market data fetch failed")
		return nil, fmt.Errorf("%w: %v", model.ErrDataUnavailable, err)
	}

	now := s.cfg.Now()
	prices := make([]model.PricePoint, 0, len(s.cfg.Currencies))
	for _, c := range s.cfg.Currencies {
		rate, ok := rates[c.Code]
		fallback := !ok || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0)
		if fallback {
			log.Warn().Str("currency", c.Code).Msg("exchange rate missing, using 1:1")
			rate = 1
		}
		local := base * rate
		prices = append(prices, model.PricePoint{
			CurrencyCode:     c.Code,
			Symbol:           c.Symbol,
			Country:          c.Country,
			PriceTroyOunce:   local,
			Change24hPercent: s.cfg.Synth.Change24h(),
			History:          s.cfg.Synth.History(local, now),
			RateFallback:     fallback,
			Synthetic:        true,
		})
	}

	summary, sources := s.summarize(ctx, &log, base)

	log.Info().Float64("usd_per_oz", base).Int("currencies", len(prices)).
		Bool("summary", summary != "").Msg("market snapshot assembled")

	return &model.MarketSnapshot{
		Prices:       prices,
		FetchedAt:    now,
		Sources:      sources,
		Summary:      summary,
		BasePriceUSD: base,
	}, nil
}

// fetchCore issues the price and rate requests concurrently; both must succeed.
func (s *Source) fetchCore(ctx context.Context) (float64, map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	var (
		base  float64
		rates map[string]float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.cfg.PriceFeed.FetchSpotPrice(gctx)
		if err != nil {
			return fmt.Errorf("%s: %w", s.cfg.PriceFeed.Name(), err)
		}
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%s: invalid spot price %v", s.cfg.PriceFeed.Name(), p)
		}
		base = p
		return nil
	})
	g.Go(func() error {
		r, err := s.cfg.RateFeed.FetchRates(gctx)
		if err != nil {
			return fmt.Errorf("%s: %w", s.cfg.RateFeed.Name(), err)
		}
		rates = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}
	return base, rates, nil
}

func (s *Source) summarize(ctx context.Context, log *zerolog.Logger, base float64) (string, []model.GroundingSource) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SentimentTimeout)
	defer cancel()

	res, err := s.cfg.Summarizer.Summarize(ctx, base)
	if err != nil {
		ev := log.Warn()
		if _, off := s.cfg.Summarizer.(sentiment.Disabled); off {
			ev = log.Debug()
		}
		ev.Err(err).Str("summarizer", s.cfg.Summarizer.Name()).Msg("sentiment summary skipped")
	}
	return sentiment.Fold(res, err)
}
