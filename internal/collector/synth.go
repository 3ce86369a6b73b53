package collector

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ncruces/go-strftime"

	"GoldBoard/internal/model"
)

const (
	dayOffsetBound  = 0.02
	spreadBound     = 0.01
	wickBound       = 0.003
	changeBoundPct  = 0.75
	historyLabelFmt = "%b %d"
)

// Synthesizer generates the chart history and 24h change when the upstream
// feeds carry no historical series.
type Synthesizer interface {
	History(price float64, at time.Time) []model.OHLCSample
	Change24h() float64
}

// RandomSynth produces bounded pseudo-random demo data. Two instances built
// with the same seed produce identical output.
type RandomSynth struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSynth creates a generator. A zero seed draws one from the clock.
func NewRandomSynth(seed uint64) *RandomSynth {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomSynth{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// uniform returns a value in [-bound, bound).
func (s *RandomSynth) uniform(bound float64) float64 {
	return (s.rng.Float64()*2 - 1) * bound
}

// History returns HistoryLength daily candles ending on the day of at.
func (s *RandomSynth) History(price float64, at time.Time) []model.OHLCSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.OHLCSample, model.HistoryLength)
	for i := range out {
		daysAgo := model.HistoryLength - 1 - i
		base := price * (1 + s.uniform(dayOffsetBound))
		open := base * (1 + s.uniform(spreadBound))
		closePrice := base * (1 + s.uniform(spreadBound))
		out[i] = model.OHLCSample{
			Label: strftime.Format(historyLabelFmt, at.AddDate(0, 0, -daysAgo)),
			Open:  open,
			High:  max(open, closePrice) * (1 + s.rng.Float64()*wickBound),
			Low:   min(open, closePrice) * (1 - s.rng.Float64()*wickBound),
			Close: closePrice,
		}
	}
	return out
}

// Change24h returns a percentage in [-0.75, 0.75).
func (s *RandomSynth) Change24h() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uniform(changeBoundPct)
}
