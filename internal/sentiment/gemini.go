package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"GoldBoard/internal/model"
)

const (
	// DefaultBaseURL is the generative-language REST endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is the model used for summaries.
	DefaultModel = "gemini-3-flash-preview"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	Language string
	// Grounding enables the google_search tool so answers carry citations.
	Grounding bool
	Retries   int
	Timeout   time.Duration
	Proxy     string
	Logger    *zerolog.Logger
}

// GeminiClient asks Gemini for a sentiment summary.
type GeminiClient struct {
	cfg    GeminiConfig
	Client *http.Client
	// backoff returns the wait before retry attempt i (0-based).
	backoff func(i int) time.Duration
}

// NewGeminiClient creates a client with optional proxy support.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "Bengali"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	transport := &http.Transport{}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &GeminiClient{
		cfg: cfg,
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		backoff: func(i int) time.Duration { return time.Duration(1<<uint(i)) * time.Second },
	}
}

func (g *GeminiClient) Name() string { return "gemini:" + g.cfg.Model }

// Prompt builds the request text for the given spot price.
func (g *GeminiClient) Prompt(basePriceUSD float64) string {
	return fmt.Sprintf("The current spot price of gold is approximately $%.2f USD per troy ounce. "+
		"Provide a very brief (max 2 sentences) professional market sentiment summary in %s "+
		"for a gold tracking dashboard. Focus on buying advice.", basePriceUSD, g.cfg.Language)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	Tools            []map[string]any `json:"tools,omitempty"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

// statusError is a non-200 reply; only 5xx replies are retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini API error: status %d, body: %s", e.code, e.body)
}

// Summarize requests a summary, retrying transport errors and 5xx replies
// with exponential backoff.
func (g *GeminiClient) Summarize(ctx context.Context, basePriceUSD float64) (Summary, error) {
	if g.cfg.APIKey == "" {
		return Summary{}, fmt.Errorf("%w: no api key configured", ErrUnavailable)
	}

	var lastErr error
	for i := 0; i <= g.cfg.Retries; i++ {
		s, err := g.generate(ctx, basePriceUSD)
		if err == nil {
			return s, nil
		}
		lastErr = err
		var se *statusError
		if errors.As(err, &se) && se.code < 500 {
			break
		}
		if i == g.cfg.Retries {
			break
		}
		wait := g.backoff(i)
		g.cfg.Logger.Warn().Err(err).Int("attempt", i+1).Dur("retry_in", wait).Msg("gemini request failed")
		select {
		case <-ctx.Done():
			return Summary{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(wait):
		}
	}
	return Summary{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (g *GeminiClient) generate(ctx context.Context, basePriceUSD float64) (Summary, error) {
	var reqBody generateRequest
	reqBody.Contents = []content{{Parts: []part{{Text: g.Prompt(basePriceUSD)}}}}
	reqBody.GenerationConfig.Temperature = 0.7
	if g.cfg.Grounding {
		reqBody.Tools = []map[string]any{{"google_search": map[string]any{}}}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return Summary{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Keep the key out of the URL: transport errors quote it verbatim.
	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(g.cfg.BaseURL, "/"), url.PathEscape(g.cfg.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Summary{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Summary{}, &statusError{code: resp.StatusCode, body: string(respBody)}
	}
	return ParseResponse(respBody)
}

// ParseResponse extracts the text and web citations of the first candidate.
func ParseResponse(body []byte) (Summary, error) {
	if !gjson.ValidBytes(body) {
		return Summary{}, fmt.Errorf("invalid json response")
	}
	cand := gjson.GetBytes(body, "candidates.0")
	if !cand.Exists() {
		return Summary{}, fmt.Errorf("no candidates in response")
	}

	var b strings.Builder
	for _, p := range cand.Get("content.parts.#.text").Array() {
		b.WriteString(p.String())
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return Summary{}, fmt.Errorf("empty candidate text")
	}

	var sources []model.GroundingSource
	seen := make(map[string]bool)
	for _, chunk := range cand.Get("groundingMetadata.groundingChunks").Array() {
		uri := chunk.Get("web.uri").String()
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		title := chunk.Get("web.title").String()
		if title == "" {
			title = uri
		}
		sources = append(sources, model.GroundingSource{Title: title, URI: uri})
	}
	return Summary{Text: text, Sources: sources}, nil
}
