package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultGoldPriceURL returns {"price": <usd per troy ounce>}.
	DefaultGoldPriceURL = "https://api.gold-api.com/price/XAU"
	// DefaultExchangeRateURL returns {"rates": {"BDT": 121.5, ...}}.
	DefaultExchangeRateURL = "https://open.er-api.com/v6/latest/USD"
)

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// getJSON performs a GET and returns the body once it is valid JSON.
func getJSON(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d, body: %s", endpoint, resp.StatusCode, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("get %s: invalid json body", endpoint)
	}
	return body, nil
}

// GoldAPIFeed implements PriceFeed using the gold-api.com public endpoint.
type GoldAPIFeed struct {
	URL    string
	Client *http.Client
}

// NewGoldAPIFeed creates a price feed with optional proxy support.
func NewGoldAPIFeed(endpoint, proxyURL string, timeout time.Duration) *GoldAPIFeed {
	if endpoint == "" {
		endpoint = DefaultGoldPriceURL
	}
	return &GoldAPIFeed{URL: endpoint, Client: newHTTPClient(proxyURL, timeout)}
}

func (f *GoldAPIFeed) Name() string { return "gold-api" }

func (f *GoldAPIFeed) FetchSpotPrice(ctx context.Context) (float64, error) {
	body, err := getJSON(ctx, f.Client, f.URL)
	if err != nil {
		return 0, fmt.Errorf("fetch spot price: %w", err)
	}
	price := gjson.GetBytes(body, "price")
	if price.Type != gjson.Number {
		return 0, fmt.Errorf("fetch spot price: missing numeric price field")
	}
	return price.Float(), nil
}

// ExchangeRateFeed implements RateFeed using the open.er-api.com endpoint.
type ExchangeRateFeed struct {
	URL    string
	Client *http.Client
}

// NewExchangeRateFeed creates a rate feed with optional proxy support.
func NewExchangeRateFeed(endpoint, proxyURL string, timeout time.Duration) *ExchangeRateFeed {
	if endpoint == "" {
		endpoint = DefaultExchangeRateURL
	}
	return &ExchangeRateFeed{URL: endpoint, Client: newHTTPClient(proxyURL, timeout)}
}

func (f *ExchangeRateFeed) Name() string { return "open-er-api" }

func (f *ExchangeRateFeed) FetchRates(ctx context.Context) (map[string]float64, error) {
	body, err := getJSON(ctx, f.Client, f.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	if r := gjson.GetBytes(body, "result"); r.Exists() && r.String() != "success" {
		return nil, fmt.Errorf("fetch rates: api result %q", r.String())
	}
	rates := gjson.GetBytes(body, "rates")
	if !rates.IsObject() {
		return nil, fmt.Errorf("fetch rates: missing rates object")
	}
	out := make(map[string]float64)
	rates.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number {
			out[key.String()] = value.Float()
		}
		return true
	})
	return out, nil
}
