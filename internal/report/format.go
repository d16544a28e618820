// Package report renders ranked metric deltas into Slack-ready text and the
// plain summary fed to the narrative generator.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ad-report-bot/internal/ledger"
	"ad-report-bot/internal/metrics"
)

const (
	noDailyChanges = "- no day-over-day changes to report."
	noWeeklyData   = "- no weekly comparison data."
)

// FormatDaily renders the top-N ranked deltas as Slack lines plus a
// pipe-delimited summary for the narrative generator. The summary carries no
// markup. Deltas arrive pre-ranked; order is preserved.
func FormatDaily(deltas []metrics.ProductDelta, topN int) (string, string) {
	if len(deltas) == 0 {
		return noDailyChanges, ""
	}
	if topN > 0 && len(deltas) > topN {
		deltas = deltas[:topN]
	}

	lines := make([]string, 0, len(deltas))
	summary := make([]string, 0, len(deltas))
	for _, d := range deltas {
		cost := SignedWhole(d.CostDiff())
		revenue := SignedWhole(d.RevenueDiff())
		roas := SignedTenth(d.ROASDiff())

		lines = append(lines, fmt.Sprintf(
			"- *%s*: cost %s, revenue %s vs prev day → ROAS %s%%p",
			d.ProductName, cost, revenue, roas))
		summary = append(summary, fmt.Sprintf(
			"%s | cost %s | revenue %s | roas %s%%p",
			d.ProductName, cost, revenue, roas))
	}

	return strings.Join(lines, "\n"), strings.Join(summary, "\n")
}

// FormatWeekly renders the week-over-week comparison block.
func FormatWeekly(w *metrics.WeeklyReport, topN int) string {
	deltas := w.Deltas
	if topN > 0 && len(deltas) > topN {
		deltas = deltas[:topN]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Weekly comparison (last 2 weeks) (%s~%s → %s~%s)",
		w.Week2Start.Format(ledger.DateLayout), w.Week2End.Format(ledger.DateLayout),
		w.Week1Start.Format(ledger.DateLayout), w.Week1End.Format(ledger.DateLayout))

	if len(deltas) == 0 {
		b.WriteString("\n" + noWeeklyData)
		return b.String()
	}

	for _, d := range deltas {
		fmt.Fprintf(&b, "\n- %s : weekly cost %s, weekly revenue %s → weekly ROAS %s%%p",
			d.ProductName, SignedWhole(d.CostDiff()), SignedWhole(d.RevenueDiff()), SignedTenth(d.ROASDiff()))
	}
	return b.String()
}

// ComposeMessage assembles the single outbound report: title line, daily
// block, optional weekly block, commentary block.
func ComposeMessage(title, dailyBlock, weeklyBlock, commentary string) string {
	var b strings.Builder
	b.WriteString("📌 " + title + "\n")
	b.WriteString(dailyBlock)
	if weeklyBlock != "" {
		b.WriteString("\n\n" + weeklyBlock)
	}
	b.WriteString("\n\n🤖 AI commentary\n" + commentary)
	return b.String()
}

// SignedWhole formats a currency delta rounded to the nearest whole unit
// (half away from zero), always signed, with comma-grouped digits.
func SignedWhole(d decimal.Decimal) string {
	rounded := d.Round(0)
	sign := "+"
	if rounded.Sign() < 0 {
		sign = "-"
	}
	return sign + groupDigits(rounded.Abs().String())
}

// SignedTenth formats a percentage-point delta with one decimal place,
// always signed.
func SignedTenth(d decimal.Decimal) string {
	rounded := d.Round(1)
	sign := "+"
	if rounded.Sign() < 0 {
		sign = "-"
	}
	return sign + rounded.Abs().StringFixed(1)
}

func groupDigits(v string) string {
	if len(v) <= 3 {
		return v
	}
	var b strings.Builder
	lead := len(v) % 3
	if lead > 0 {
		b.WriteString(v[:lead])
	}
	for i := lead; i < len(v); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v[i : i+3])
	}
	return b.String()
}
