package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"ad-report-bot/internal/ledger"
	"ad-report-bot/internal/metrics"
)

// dailyTotal is one ledger date's summed spend, revenue, and derived ROAS.
type dailyTotal struct {
	Date    time.Time
	Cost    decimal.Decimal
	Revenue decimal.Decimal
	ROAS    decimal.Decimal
}

// Export renders the ledger's daily totals as CSV and/or a PNG trend chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	records, err := ledger.Load(a.Config.Data.LedgerPath())
	if err != nil {
		return err
	}

	if opts.From != nil || opts.To != nil {
		from := time.Time{}
		to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		if opts.From != nil {
			from = *opts.From
		}
		if opts.To != nil {
			to = *opts.To
		}
		records = ledger.FilterRange(records, from, to)
	}

	totals := dailyTotals(records)
	if len(totals) == 0 {
		a.Logger.Info().Msg("no ledger data found for export window")
		return nil
	}

	downsampled := downsampleTotals(totals, opts.MaxPoints)
	a.Logger.Info().Int("total", len(totals)).Int("exported", len(downsampled)).Msg("exporting daily totals")

	if opts.CSVPath != "" {
		if err := writeTotalsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeTotalsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func dailyTotals(records []ledger.Record) []dailyTotal {
	byDate := make(map[time.Time]*dailyTotal)
	for _, r := range records {
		t, ok := byDate[r.Date]
		if !ok {
			t = &dailyTotal{Date: r.Date}
			byDate[r.Date] = t
		}
		t.Cost = t.Cost.Add(r.Cost)
		t.Revenue = t.Revenue.Add(r.Revenue)
	}

	totals := make([]dailyTotal, 0, len(byDate))
	for _, t := range byDate {
		t.ROAS = metrics.ROAS(t.Revenue, t.Cost)
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date) })
	return totals
}

func downsampleTotals(totals []dailyTotal, max int) []dailyTotal {
	if max <= 0 || len(totals) <= max {
		return totals
	}

	result := make([]dailyTotal, 0, max)
	step := float64(len(totals)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(totals) {
			idx = len(totals) - 1
		}
		result = append(result, totals[idx])
	}
	return result
}

func writeTotalsCSV(path string, totals []dailyTotal) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"date", "cost", "revenue", "roas_pct"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, t := range totals {
		record := []string{
			t.Date.Format(ledger.DateLayout),
			t.Cost.String(),
			t.Revenue.String(),
			t.ROAS.StringFixed(1),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeTotalsPNG(path string, totals []dailyTotal) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(totals))
	cost := make([]float64, len(totals))
	revenue := make([]float64, len(totals))
	roas := make([]float64, len(totals))

	for i, t := range totals {
		x[i] = t.Date
		cost[i] = t.Cost.InexactFloat64()
		revenue[i] = t.Revenue.InexactFloat64()
		roas[i] = t.ROAS.InexactFloat64()
	}

	amountFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Amount",
			ValueFormatter: amountFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name: "ROAS (%)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.1f")
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Cost",
				XValues: x,
				YValues: cost,
			},
			chart.TimeSeries{
				Name:    "Revenue",
				XValues: x,
				YValues: revenue,
			},
			chart.TimeSeries{
				Name:    "ROAS %",
				XValues: x,
				YValues: roas,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
