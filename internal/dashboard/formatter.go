// Package dashboard renders the refresh state as text cards and runs the
// interactive console around it.
package dashboard

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"GoldBoard/internal/calculator"
	"GoldBoard/internal/model"
	"GoldBoard/internal/units"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

const (
	// minSummaryRunes hides fragments too short to be a real summary.
	minSummaryRunes = 6
	maxSources      = 4
)

// FormatMoney rounds half away from zero to 2 decimals and groups thousands.
func FormatMoney(symbol string, v float64) string {
	rounded := decimal.NewFromFloat(v).Round(2).InexactFloat64()
	return symbol + humanize.FormatFloat("#,###.##", rounded)
}

// Sparkline maps each close onto a block character scaled to the history range.
func Sparkline(history []model.OHLCSample) string {
	high, low, err := calculator.HistoryRange(history)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range calculator.Closes(history) {
		pos, err := calculator.RangePosition(c, high, low)
		if err != nil {
			pos = 0.5
		}
		b.WriteRune(sparkBlocks[int(pos*float64(len(sparkBlocks)-1)+0.5)])
	}
	return b.String()
}

// Render writes the whole dashboard for st using the viewer's selection.
func Render(w io.Writer, st model.RefreshState, sel units.Selection, now time.Time) error {
	var b strings.Builder

	writeHeader(&b, st, now)

	if st.Message != "" {
		b.WriteString(fmt.Sprintf("⚠️  %s\n   type \"refresh\" to retry\n\n", st.Message))
	}

	b.WriteString(fmt.Sprintf("পরিমাণ (Quantity): %s | একক (Unit): %s | %s\n\n",
		humanize.FormatFloat("#,###.##", sel.Quantity), sel.Unit.Label(), sel.Purity))

	prices := st.Prices()
	if len(prices) == 0 {
		b.WriteString("   … waiting for market data …\n")
	}
	synthetic := false
	for _, p := range prices {
		writeCard(&b, p, sel)
		synthetic = synthetic || p.Synthetic
	}

	if st.Snapshot != nil {
		writeAnalysis(&b, st.Snapshot.Summary, st.Snapshot.Sources)
	}

	if synthetic {
		b.WriteString("Note: 12-day history and 24h change are illustrative demo data.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, st model.RefreshState, now time.Time) {
	b.WriteString("🪙 GoldBoard")
	if st.Snapshot != nil {
		at := st.Snapshot.FetchedAt
		b.WriteString(fmt.Sprintf(" | updated %s (%s)", at.Local().Format("2006-01-02 15:04"),
			humanize.RelTime(at, now, "ago", "from now")))
		if st.Snapshot.BasePriceUSD > 0 {
			b.WriteString(" | XAU " + FormatMoney("$", st.Snapshot.BasePriceUSD) + "/oz")
		}
	}
	if st.IsLoading {
		b.WriteString(" | ⟳ refreshing")
	}
	b.WriteString("\n\n")
}

func writeAnalysis(b *strings.Builder, summary string, sources []model.GroundingSource) {
	hasSummary := utf8.RuneCountInString(summary) >= minSummaryRunes
	if !hasSummary && len(sources) == 0 {
		return
	}
	b.WriteString("📈 Market analysis\n")
	if hasSummary {
		b.WriteString(summary + "\n")
	}
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	for _, s := range sources {
		b.WriteString(fmt.Sprintf("  • %s <%s>\n", s.Title, s.URI))
	}
	b.WriteString("\n")
}

func writeCard(b *strings.Builder, p model.PricePoint, sel units.Selection) {
	arrow := "▲"
	if p.Change24hPercent < 0 {
		arrow = "▼"
	}
	change := p.Change24hPercent
	if change < 0 {
		change = -change
	}
	b.WriteString(fmt.Sprintf("%s  %s  %s %.2f%%\n", p.CurrencyCode, p.Country, arrow, change))

	unitPrice := sel.UnitPrice(p.PriceTroyOunce)
	b.WriteString(fmt.Sprintf("  Unit price: %s / %s\n", FormatMoney(p.Symbol, unitPrice), sel.Unit.Short()))
	b.WriteString(fmt.Sprintf("  Calculated value (%s %s): %s\n",
		humanize.FormatFloat("#,###.##", sel.Quantity), sel.Unit.Label(),
		FormatMoney(p.Symbol, units.TotalPrice(unitPrice, sel.Quantity))))

	if high, low, err := calculator.HistoryRange(p.History); err == nil {
		avg, _ := calculator.AverageClose(p.History)
		b.WriteString(fmt.Sprintf("  %dd: L %s  H %s  avg %s  %s\n", len(p.History),
			FormatMoney(p.Symbol, sel.UnitPrice(low)),
			FormatMoney(p.Symbol, sel.UnitPrice(high)),
			FormatMoney(p.Symbol, sel.UnitPrice(avg)),
			Sparkline(p.History)))
	}
	if p.RateFallback {
		b.WriteString("  (exchange rate unavailable, shown 1:1 with USD)\n")
	}
	b.WriteString("\n")
}
