package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ad-report-bot/internal/ledger"
	"ad-report-bot/internal/metrics"
	"ad-report-bot/internal/narrative"
	"ad-report-bot/internal/report"
	"ad-report-bot/internal/storage"
)

// Report runs one daily cycle: freshness check, batch upsert into the ledger,
// day-over-day and week-over-week comparisons, commentary generation, and a
// single Slack delivery. Stale or missing batch data ends the run silently
// unless opts says otherwise.
func (a *App) Report(ctx context.Context, opts ReportOptions) error {
	ledgerPath := a.Config.Data.LedgerPath()
	batchPath := a.Config.Data.BatchPath()
	notifier := a.newNotifier()

	batchMax, batchOK, err := ledger.MaxDate(batchPath)
	if err != nil {
		return fmt.Errorf("inspect batch: %w", err)
	}
	ledgerMax, ledgerOK, err := ledger.MaxDate(ledgerPath)
	if err != nil {
		return fmt.Errorf("inspect ledger: %w", err)
	}

	if !batchOK {
		a.Logger.Info().Str("batch", batchPath).Msg("no batch data present")
		if opts.NotifyMissing {
			return notifier.Send(ctx, missingBatchNotice(batchPath))
		}
		return nil
	}

	isNew := !ledgerOK || batchMax.After(ledgerMax)
	if !isNew && !opts.Force {
		a.Logger.Info().
			Time("batch_max", batchMax).
			Time("ledger_max", ledgerMax).
			Msg("batch holds no new dates; skipping run")
		if opts.NotifyMissing {
			return notifier.Send(ctx, staleBatchNotice(batchMax, ledgerMax, ledgerOK))
		}
		return nil
	}

	_, dates, err := ledger.Upsert(ledgerPath, batchPath)
	if err != nil {
		return fmt.Errorf("merge batch into ledger: %w", err)
	}
	a.Logger.Info().Int("dates", len(dates)).Str("ledger", ledgerPath).Msg("batch merged")

	history, err := ledger.Load(ledgerPath)
	if err != nil {
		return fmt.Errorf("load merged ledger: %w", err)
	}
	batch, err := ledger.Load(batchPath)
	if err != nil {
		return fmt.Errorf("load batch: %w", err)
	}

	daily, err := metrics.DailyDeltas(history, batch)
	if err != nil {
		return fmt.Errorf("compute daily deltas: %w", err)
	}
	dailyBlock, summary := report.FormatDaily(daily.Deltas, a.Config.Report.DailyTopN)

	weekEnd, err := a.Config.Report.WeekEnd()
	if err != nil {
		return err
	}
	weeklyBlock := ""
	weekly := metrics.WeeklyDeltas(history, daily.Today, weekEnd)
	if weekly != nil {
		weeklyBlock = report.FormatWeekly(weekly, a.Config.Report.WeeklyTopN)
	}

	commentary := a.generateCommentary(ctx, summary)

	message := report.ComposeMessage(daily.Title, dailyBlock, weeklyBlock, commentary)
	if err := notifier.Send(ctx, message); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}

	a.archiveRun(ctx, daily, weekly != nil, message)
	return nil
}

// generateCommentary asks the narrative model for analysis. Any failure
// degrades to a fixed placeholder; the report still goes out.
func (a *App) generateCommentary(ctx context.Context, summary string) string {
	if strings.TrimSpace(summary) == "" {
		return narrative.InsufficientDataComment
	}

	gen := a.newGenerator()
	if gen == nil {
		a.Logger.Warn().Msg("narrative.api_key not configured; using fallback commentary")
		return narrative.FallbackComment
	}

	genCtx, cancel := context.WithTimeout(ctx, a.Config.Narrative.Timeout)
	defer cancel()

	commentary, err := gen.Commentary(genCtx, summary)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("commentary generation failed; using fallback")
		return narrative.FallbackComment
	}
	return commentary
}

// archiveRun records the completed run in Postgres when configured. Archive
// failures are logged, never fatal: the report has already been delivered.
func (a *App) archiveRun(ctx context.Context, daily *metrics.DailyReport, hasWeekly bool, message string) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to open run archive")
		return
	}
	if store == nil {
		return
	}
	defer closeStore()

	run := storage.ReportRun{
		RunTS:     time.Now().UTC(),
		TodayDate: daily.Today,
		PrevDate:  daily.Prev,
		Products:  len(daily.Deltas),
		HasWeekly: hasWeekly,
		Message:   message,
		Status:    "sent",
	}
	if _, err := store.InsertReportRun(ctx, run); err != nil {
		a.Logger.Error().Err(err).Msg("failed to archive report run")
		return
	}
	a.Logger.Debug().Msg("report run archived")
}

func missingBatchNotice(batchPath string) string {
	return fmt.Sprintf(
		"⚠️ %s is missing or empty. Please upload today's data.", batchPath)
}

func staleBatchNotice(batchMax, ledgerMax time.Time, ledgerOK bool) string {
	ledgerLine := "no records"
	if ledgerOK {
		ledgerLine = ledgerMax.Format(ledger.DateLayout)
	}
	return fmt.Sprintf(
		"⚠️ Today's data has not been updated yet.\n"+
			"- batch latest date: %s\n"+
			"- ledger latest date: %s\n"+
			"Upload new data and run again to start the analysis.",
		batchMax.Format(ledger.DateLayout), ledgerLine)
}

