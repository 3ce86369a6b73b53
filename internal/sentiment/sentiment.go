// Package sentiment fetches a short market-sentiment summary with citations
// from a generative-language backend. Every failure is reported as
// ErrUnavailable and is expected to be folded into empty values.
package sentiment

import (
	"context"
	"errors"

	"GoldBoard/internal/model"
)

// ErrUnavailable is returned whenever no summary could be produced.
var ErrUnavailable = errors.New("sentiment unavailable")

// Summary is the generated text and its grounding sources.
type Summary struct {
	Text    string
	Sources []model.GroundingSource
}

// Summarizer produces a sentiment summary for the current spot price.
type Summarizer interface {
	Summarize(ctx context.Context, basePriceUSD float64) (Summary, error)
	Name() string
}

// Disabled is used when no credential is configured.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Summarize(context.Context, float64) (Summary, error) {
	return Summary{}, ErrUnavailable
}

// Fold collapses a summarize result into default values.
func Fold(s Summary, err error) (string, []model.GroundingSource) {
	if err != nil {
		return "", nil
	}
	return s.Text, s.Sources
}
