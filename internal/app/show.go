package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"ad-report-bot/internal/ledger"
)

// Show prints recently archived report runs.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show archived runs")
	}
	if closeStore != nil {
		defer closeStore()
	}

	runs, err := store.ListRecentRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "no archived runs found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Run (UTC)\tToday\tPrev\tProducts\tWeekly\tStatus\tPreview")

	for _, run := range runs {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%d\t%v\t%s\t%s\n",
			run.RunTS.UTC().Format(time.RFC3339),
			run.TodayDate.Format(ledger.DateLayout),
			run.PrevDate.Format(ledger.DateLayout),
			run.Products,
			run.HasWeekly,
			run.Status,
			preview(run.Message, 60),
		)
	}

	writer.Flush()
	return nil
}

func preview(v string, max int) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	runes := []rune(cleaned)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return cleaned
}
