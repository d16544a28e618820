package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"ad-report-bot/internal/scheduler"
)

// Watch polls for fresh batch data at the configured interval, running the
// full report cycle whenever a new upload appears. Intended for environments
// without an external cron; still one run at a time against the ledger.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		AlignToStart: a.Config.Watch.AlignToBucket,
		StartupDelay: a.Config.Watch.StartupDelay,
	}, a.Logger)

	opts := ReportOptions{NotifyMissing: a.Config.Watch.NotifyMissing}

	a.Logger.Info().Dur("interval", a.Config.Watch.Interval).Msg("starting watch mode")
	err := sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		return a.Report(ctx, opts)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch mode terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch mode stopped")
	return nil
}
