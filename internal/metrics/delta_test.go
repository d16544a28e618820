package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ad-report-bot/internal/ledger"
)

func dayRec(t *testing.T, date, product string, cost, revenue int64) ledger.Record {
	t.Helper()
	d, err := time.Parse(ledger.DateLayout, date)
	if err != nil {
		t.Fatalf("parse date %s: %v", date, err)
	}
	return ledger.Record{
		Date:        d,
		ProductName: product,
		Cost:        decimal.NewFromInt(cost),
		Revenue:     decimal.NewFromInt(revenue),
		Conversions: decimal.NewFromInt(1),
	}
}

func TestDailyDeltasBasicComparison(t *testing.T) {
	history := []ledger.Record{
		dayRec(t, "2024-05-01", "X", 100, 50),
		dayRec(t, "2024-05-02", "X", 200, 300),
	}
	batch := []ledger.Record{dayRec(t, "2024-05-02", "X", 200, 300)}

	report, err := DailyDeltas(history, batch)
	if err != nil {
		t.Fatalf("daily deltas: %v", err)
	}
	if report.Today.Format(ledger.DateLayout) != "2024-05-02" {
		t.Fatalf("today should anchor to the batch max, got %s", report.Today)
	}
	if report.Prev.Format(ledger.DateLayout) != "2024-05-01" {
		t.Fatalf("expected prev 2024-05-01, got %s", report.Prev)
	}
	if len(report.Deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(report.Deltas))
	}

	d := report.Deltas[0]
	if d.CostDiff().String() != "100" {
		t.Fatalf("expected cost diff +100, got %s", d.CostDiff())
	}
	if d.RevenueDiff().String() != "250" {
		t.Fatalf("expected revenue diff +250, got %s", d.RevenueDiff())
	}
	if d.ROASPrev.String() != "50" || d.ROASToday.String() != "150" {
		t.Fatalf("expected ROAS 50 → 150, got %s → %s", d.ROASPrev, d.ROASToday)
	}
	if d.ROASDiff().String() != "100" {
		t.Fatalf("expected ROAS diff +100 points, got %s", d.ROASDiff())
	}
}

func TestDailyDeltasSkipsCalendarGaps(t *testing.T) {
	// Friday data followed by Monday upload; the weekend is absent.
	history := []ledger.Record{
		dayRec(t, "2024-05-03", "X", 100, 100),
		dayRec(t, "2024-05-06", "X", 100, 200),
	}
	batch := []ledger.Record{dayRec(t, "2024-05-06", "X", 100, 200)}

	report, err := DailyDeltas(history, batch)
	if err != nil {
		t.Fatalf("daily deltas: %v", err)
	}
	if report.Prev.Format(ledger.DateLayout) != "2024-05-03" {
		t.Fatalf("prev should be the nearest earlier date, got %s", report.Prev)
	}
}

func TestDailyDeltasOuterJoin(t *testing.T) {
	history := []ledger.Record{
		dayRec(t, "2024-05-01", "Gone", 100, 100),
		dayRec(t, "2024-05-02", "New", 50, 100),
	}
	batch := []ledger.Record{dayRec(t, "2024-05-02", "New", 50, 100)}

	report, err := DailyDeltas(history, batch)
	if err != nil {
		t.Fatalf("daily deltas: %v", err)
	}
	if len(report.Deltas) != 2 {
		t.Fatalf("expected both sides of the join, got %d deltas", len(report.Deltas))
	}
	for _, d := range report.Deltas {
		switch d.ProductName {
		case "New":
			if !d.CostPrev.IsZero() || !d.ROASPrev.IsZero() {
				t.Fatalf("new product should have zero prev side: %+v", d)
			}
		case "Gone":
			if !d.CostToday.IsZero() || !d.ROASToday.IsZero() {
				t.Fatalf("dropped product should have zero today side: %+v", d)
			}
		default:
			t.Fatalf("unexpected product %s", d.ProductName)
		}
	}
}

func TestDailyDeltasRanking(t *testing.T) {
	history := []ledger.Record{
		dayRec(t, "2024-05-01", "Small", 100, 100), // ROAS 100
		dayRec(t, "2024-05-01", "Big", 100, 100),   // ROAS 100
		dayRec(t, "2024-05-02", "Small", 100, 110), // ROAS 110, diff +10
		dayRec(t, "2024-05-02", "Big", 100, 400),   // ROAS 400, diff +300
	}
	batch := []ledger.Record{dayRec(t, "2024-05-02", "Big", 100, 400)}

	report, err := DailyDeltas(history, batch)
	if err != nil {
		t.Fatalf("daily deltas: %v", err)
	}
	if report.Deltas[0].ProductName != "Big" {
		t.Fatalf("expected Big ranked first by absolute ROAS change, got %s", report.Deltas[0].ProductName)
	}
	for i := 1; i < len(report.Deltas); i++ {
		prev := report.Deltas[i-1].ROASDiff().Abs()
		cur := report.Deltas[i].ROASDiff().Abs()
		if cur.GreaterThan(prev) {
			t.Fatalf("ranking not descending at %d: %s > %s", i, cur, prev)
		}
	}
}

func TestDailyDeltasNoPriorDate(t *testing.T) {
	history := []ledger.Record{dayRec(t, "2024-05-01", "X", 1, 1)}
	batch := []ledger.Record{dayRec(t, "2024-05-01", "X", 1, 1)}

	_, err := DailyDeltas(history, batch)
	if !errors.Is(err, ErrNoPriorDate) {
		t.Fatalf("expected ErrNoPriorDate, got %v", err)
	}
}

func TestDailyDeltasEmptyInputs(t *testing.T) {
	if _, err := DailyDeltas(nil, []ledger.Record{dayRec(t, "2024-05-01", "X", 1, 1)}); !errors.Is(err, ErrNoLedgerRecords) {
		t.Fatalf("expected ErrNoLedgerRecords, got %v", err)
	}
	if _, err := DailyDeltas([]ledger.Record{dayRec(t, "2024-05-01", "X", 1, 1)}, nil); !errors.Is(err, ErrNoBatchRecords) {
		t.Fatalf("expected ErrNoBatchRecords, got %v", err)
	}
}

func TestWeeklyDeltasGatedByWeekday(t *testing.T) {
	// 2024-05-12 is a Sunday; 2024-05-10 is a Friday.
	history := []ledger.Record{
		dayRec(t, "2024-05-05", "X", 100, 100),
		dayRec(t, "2024-05-12", "X", 100, 200),
	}

	friday, _ := time.Parse(ledger.DateLayout, "2024-05-10")
	if w := WeeklyDeltas(history, friday, time.Sunday); w != nil {
		t.Fatal("non week-end date must yield no weekly comparison")
	}

	sunday, _ := time.Parse(ledger.DateLayout, "2024-05-12")
	w := WeeklyDeltas(history, sunday, time.Sunday)
	if w == nil {
		t.Fatal("week-end date with data on both windows should compare")
	}
	if w.Week1Start.Format(ledger.DateLayout) != "2024-05-06" || w.Week1End.Format(ledger.DateLayout) != "2024-05-12" {
		t.Fatalf("bad week1 window: %s ~ %s", w.Week1Start, w.Week1End)
	}
	if w.Week2Start.Format(ledger.DateLayout) != "2024-04-29" || w.Week2End.Format(ledger.DateLayout) != "2024-05-05" {
		t.Fatalf("bad week2 window: %s ~ %s", w.Week2Start, w.Week2End)
	}
	if len(w.Deltas) != 1 {
		t.Fatalf("expected 1 product delta, got %d", len(w.Deltas))
	}
	if w.Deltas[0].ROASDiff().String() != "100" {
		t.Fatalf("expected weekly ROAS diff +100 points, got %s", w.Deltas[0].ROASDiff())
	}
}

func TestWeeklyDeltasEmptyWindow(t *testing.T) {
	history := []ledger.Record{dayRec(t, "2024-05-12", "X", 100, 200)}
	sunday, _ := time.Parse(ledger.DateLayout, "2024-05-12")
	if w := WeeklyDeltas(history, sunday, time.Sunday); w != nil {
		t.Fatal("empty prior window must yield no weekly comparison")
	}
}
