package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoldBoard/internal/model"
	"GoldBoard/internal/sentiment"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type stubSummarizer struct {
	summary sentiment.Summary
	err     error
	calls   int
	price   float64
}

func (s *stubSummarizer) Name() string { return "stub" }

func (s *stubSummarizer) Summarize(_ context.Context, base float64) (sentiment.Summary, error) {
	s.calls++
	s.price = base
	return s.summary, s.err
}

// blockingFeed waits for the context to expire.
type blockingFeed struct{}

func (blockingFeed) Name() string { return "blocking" }

func (blockingFeed) FetchSpotPrice(ctx context.Context) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func newSource(t *testing.T, feed *MockFeed, sum sentiment.Summarizer) *Source {
	t.Helper()
	logger := zerolog.Nop()
	src, err := NewSource(SourceConfig{
		PriceFeed:  feed,
		RateFeed:   feed,
		Summarizer: sum,
		Synth:      NewRandomSynth(42),
		Now:        func() time.Time { return fixedNow },
		Logger:     &logger,
	})
	require.NoError(t, err)
	return src
}

func TestSourceConfigValidate(t *testing.T) {
	err := (&SourceConfig{}).Validate()
	require.Error(t, err)
	for _, want := range []string{"price feed cannot be nil", "rate feed cannot be nil", "logger cannot be nil"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestFetch_AssemblesEveryCurrency(t *testing.T) {
	sum := &stubSummarizer{summary: sentiment.Summary{
		Text:    "Gold is steady.",
		Sources: []model.GroundingSource{{Title: "Reuters", URI: "https://example.com"}},
	}}
	src := newSource(t, &MockFeed{Price: 2650}, sum)

	snap, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.NoError(t, snap.Validate())

	assert.Equal(t, fixedNow, snap.FetchedAt)
	assert.Equal(t, 2650.0, snap.BasePriceUSD)
	assert.Equal(t, "Gold is steady.", snap.Summary)
	assert.Len(t, snap.Sources, 1)
	assert.Equal(t, 2650.0, sum.price)
	require.Len(t, snap.Prices, len(model.Currencies))

	bdt, ok := snap.Price("BDT")
	require.True(t, ok)
	assert.InDelta(t, 2650*121.5, bdt.PriceTroyOunce, 1e-6)
	assert.Equal(t, "৳", bdt.Symbol)
	assert.True(t, bdt.Synthetic)
	assert.False(t, bdt.RateFallback)
	assert.Len(t, bdt.History, model.HistoryLength)
	assert.Equal(t, "Oct 18", bdt.History[model.HistoryLength-1].Label)
	assert.Equal(t, "Oct 07", bdt.History[0].Label)
	assert.LessOrEqual(t, bdt.Change24hPercent, 0.75)
	assert.GreaterOrEqual(t, bdt.Change24hPercent, -0.75)
}

func TestFetch_MissingRateFallsBackAndFlags(t *testing.T) {
	feed := &MockFeed{Price: 2000, Rates: map[string]float64{"USD": 1, "EUR": 0.9, "JPY": -1}}
	src := newSource(t, feed, sentiment.Disabled{})

	snap, err := src.Fetch(context.Background())
	require.NoError(t, err)

	eur, _ := snap.Price("EUR")
	assert.False(t, eur.RateFallback)
	assert.InDelta(t, 1800.0, eur.PriceTroyOunce, 1e-9)

	for _, code := range []string{"BDT", "JPY"} {
		p, ok := snap.Price(code)
		require.True(t, ok)
		assert.True(t, p.RateFallback, code)
		assert.Equal(t, 2000.0, p.PriceTroyOunce, code)
	}
}

func TestFetch_CoreFailureIsDataUnavailable(t *testing.T) {
	tests := []struct {
		name string
		feed *MockFeed
	}{
		{"price feed down", &MockFeed{PriceErr: errors.New("connection refused")}},
		{"rate feed down", &MockFeed{Price: 2000, RatesErr: errors.New("status 503")}},
		{"negative price", &MockFeed{Price: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := &stubSummarizer{}
			snap, err := newSource(t, tt.feed, sum).Fetch(context.Background())
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, model.ErrDataUnavailable)
			assert.Zero(t, sum.calls)
		})
	}
}

func TestFetch_TimeoutIsDataUnavailable(t *testing.T) {
	logger := zerolog.Nop()
	src, err := NewSource(SourceConfig{
		PriceFeed:      blockingFeed{},
		RateFeed:       &MockFeed{},
		RequestTimeout: 20 * time.Millisecond,
		Logger:         &logger,
	})
	require.NoError(t, err)

	_, err = src.Fetch(context.Background())
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestFetch_SentimentFailureDegrades(t *testing.T) {
	sum := &stubSummarizer{
		summary: sentiment.Summary{Text: "partial"},
		err:     errors.New("quota exhausted"),
	}
	snap, err := newSource(t, &MockFeed{Price: 2650}, sum).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Prices)
	assert.Empty(t, snap.Summary)
	assert.Empty(t, snap.Sources)
}

func TestFetch_RestrictedCurrencies(t *testing.T) {
	logger := zerolog.Nop()
	feed := &MockFeed{Price: 2650}
	src, err := NewSource(SourceConfig{
		PriceFeed:  feed,
		RateFeed:   feed,
		Currencies: model.SelectCurrencies([]string{"USD", "BDT"}),
		Logger:     &logger,
	})
	require.NoError(t, err)

	snap, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Prices, 2)
	assert.Equal(t, "BDT", snap.Prices[0].CurrencyCode)
	assert.Equal(t, "USD", snap.Prices[1].CurrencyCode)
}

func TestRandomSynth_SeededAndBounded(t *testing.T) {
	a := NewRandomSynth(7).History(1000, fixedNow)
	b := NewRandomSynth(7).History(1000, fixedNow)
	assert.Equal(t, a, b)

	c := NewRandomSynth(8).History(1000, fixedNow)
	assert.NotEqual(t, a, c)

	s := NewRandomSynth(99)
	for n := 0; n < 50; n++ {
		for _, h := range s.History(1000, fixedNow) {
			assert.True(t, h.Valid(), "%+v", h)
			// base ±2%, spread ±1%, wick ≤0.3%
			assert.LessOrEqual(t, h.High, 1000*1.02*1.01*1.003+1e-9)
			assert.GreaterOrEqual(t, h.Low, 1000*0.98*0.99*0.997-1e-9)
		}
		ch := s.Change24h()
		assert.True(t, ch >= -0.75 && ch < 0.75, ch)
	}
}

func TestGoldAPIFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"name":"Gold","price":2650.55,"symbol":"XAU"}`))
		case "/noprice":
			_, _ = w.Write([]byte(`{"name":"Gold"}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	price, err := NewGoldAPIFeed(srv.URL+"/ok", "", time.Second).FetchSpotPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2650.55, price)

	_, err = NewGoldAPIFeed(srv.URL+"/noprice", "", time.Second).FetchSpotPrice(context.Background())
	assert.Error(t, err)

	_, err = NewGoldAPIFeed(srv.URL+"/fail", "", time.Second).FetchSpotPrice(context.Background())
	assert.ErrorContains(t, err, "status 500")
}

func TestExchangeRateFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","rates":{"USD":1,"BDT":121.5,"EUR":0.86,"BAD":"x"}}`))
		case "/error":
			_, _ = w.Write([]byte(`{"result":"error","error-type":"unsupported-code"}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	rates, err := NewExchangeRateFeed(srv.URL+"/ok", "", time.Second).FetchRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1, "BDT": 121.5, "EUR": 0.86}, rates)

	_, err = NewExchangeRateFeed(srv.URL+"/error", "", time.Second).FetchRates(context.Background())
	assert.Error(t, err)

	_, err = NewExchangeRateFeed(srv.URL+"/garbage", "", time.Second).FetchRates(context.Background())
	assert.Error(t, err)
}
