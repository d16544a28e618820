package metrics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ad-report-bot/internal/ledger"
)

var (
	// ErrNoPriorDate indicates the ledger holds no date earlier than the
	// report date, so there is nothing to diff against.
	ErrNoPriorDate = errors.New("metrics: no prior date to compare against")
	// ErrNoBatchRecords indicates a daily comparison was requested without
	// any freshly uploaded rows.
	ErrNoBatchRecords = errors.New("metrics: batch has no records")
	// ErrNoLedgerRecords indicates the ledger is empty; the comparison runs
	// after the merge, so an empty ledger means the pipeline was misordered.
	ErrNoLedgerRecords = errors.New("metrics: ledger has no records")
)

// ProductDelta pairs one product's aggregates over two periods.
type ProductDelta struct {
	ProductName  string
	CostToday    decimal.Decimal
	CostPrev     decimal.Decimal
	RevenueToday decimal.Decimal
	RevenuePrev  decimal.Decimal
	ConvToday    decimal.Decimal
	ConvPrev     decimal.Decimal
	ROASToday    decimal.Decimal
	ROASPrev     decimal.Decimal
}

// CostDiff is today minus previous cost.
func (d ProductDelta) CostDiff() decimal.Decimal { return d.CostToday.Sub(d.CostPrev) }

// RevenueDiff is today minus previous revenue.
func (d ProductDelta) RevenueDiff() decimal.Decimal { return d.RevenueToday.Sub(d.RevenuePrev) }

// ConvDiff is today minus previous conversions.
func (d ProductDelta) ConvDiff() decimal.Decimal { return d.ConvToday.Sub(d.ConvPrev) }

// ROASDiff is the ROAS change in percentage points.
func (d ProductDelta) ROASDiff() decimal.Decimal { return d.ROASToday.Sub(d.ROASPrev) }

// DailyReport carries the day-over-day comparison for one report date.
type DailyReport struct {
	Title  string
	Today  time.Time
	Prev   time.Time
	Deltas []ProductDelta
}

// WeeklyReport compares two adjacent 7-day windows.
type WeeklyReport struct {
	Week1Start time.Time
	Week1End   time.Time
	Week2Start time.Time
	Week2End   time.Time
	Deltas     []ProductDelta
}

// DailyDeltas compares the batch's latest date against the nearest earlier
// ledger date. The report date is anchored to the batch max, not the ledger
// max, even if the ledger holds later dates from another source; aggregates
// are always taken from the merged ledger.
func DailyDeltas(ledgerRecords, batchRecords []ledger.Record) (*DailyReport, error) {
	if len(batchRecords) == 0 {
		return nil, ErrNoBatchRecords
	}
	if len(ledgerRecords) == 0 {
		return nil, ErrNoLedgerRecords
	}

	today := maxDate(batchRecords)
	prev, ok := nearestEarlier(ledger.Dates(ledgerRecords), today)
	if !ok {
		return nil, fmt.Errorf("%w: today=%s", ErrNoPriorDate, today.Format(ledger.DateLayout))
	}

	todayAgg := AggregateByProduct(ledger.FilterDate(ledgerRecords, today))
	prevAgg := AggregateByProduct(ledger.FilterDate(ledgerRecords, prev))

	deltas := pairAggregates(todayAgg, prevAgg)
	rankByROASChange(deltas)

	title := fmt.Sprintf("Daily ad performance report (%s → %s)",
		prev.Format(ledger.DateLayout), today.Format(ledger.DateLayout))

	return &DailyReport{Title: title, Today: today, Prev: prev, Deltas: deltas}, nil
}

// WeeklyDeltas compares the last two 7-day windows ending at evalDate. The
// comparison only applies when evalDate falls on the configured week-end
// weekday; any other day, or either window having no rows, yields nil.
func WeeklyDeltas(ledgerRecords []ledger.Record, evalDate time.Time, weekEnd time.Weekday) *WeeklyReport {
	if evalDate.Weekday() != weekEnd {
		return nil
	}

	w1End := evalDate
	w1Start := w1End.AddDate(0, 0, -6)
	w2End := w1Start.AddDate(0, 0, -1)
	w2Start := w2End.AddDate(0, 0, -6)

	week1 := ledger.FilterRange(ledgerRecords, w1Start, w1End)
	week2 := ledger.FilterRange(ledgerRecords, w2Start, w2End)
	if len(week1) == 0 || len(week2) == 0 {
		return nil
	}

	deltas := pairAggregates(AggregateByProduct(week1), AggregateByProduct(week2))
	rankByROASChange(deltas)

	return &WeeklyReport{
		Week1Start: w1Start,
		Week1End:   w1End,
		Week2Start: w2Start,
		Week2End:   w2End,
		Deltas:     deltas,
	}
}

// pairAggregates outer-joins two aggregate sets on product name, filling the
// missing side with zero values.
func pairAggregates(today, prev []ProductAggregate) []ProductDelta {
	pairs := outerJoinByKey(today, prev,
		func(a ProductAggregate) string { return a.ProductName },
		func(name string) ProductAggregate { return ProductAggregate{ProductName: name} },
	)

	deltas := make([]ProductDelta, 0, len(pairs))
	for _, p := range pairs {
		deltas = append(deltas, ProductDelta{
			ProductName:  p.Key,
			CostToday:    p.Left.Cost,
			CostPrev:     p.Right.Cost,
			RevenueToday: p.Left.Revenue,
			RevenuePrev:  p.Right.Revenue,
			ConvToday:    p.Left.Conversions,
			ConvPrev:     p.Right.Conversions,
			ROASToday:    p.Left.ROAS,
			ROASPrev:     p.Right.ROAS,
		})
	}
	return deltas
}

// rankByROASChange orders deltas by descending absolute ROAS-point change.
// Ties keep the join order, which is deterministic for a given input.
func rankByROASChange(deltas []ProductDelta) {
	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].ROASDiff().Abs().GreaterThan(deltas[j].ROASDiff().Abs())
	})
}

func maxDate(records []ledger.Record) time.Time {
	max := records[0].Date
	for _, r := range records[1:] {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max
}

func nearestEarlier(dates []time.Time, today time.Time) (time.Time, bool) {
	var prev time.Time
	found := false
	for _, d := range dates {
		if !d.Before(today) {
			continue
		}
		if !found || d.After(prev) {
			prev = d
			found = true
		}
	}
	return prev, found
}
