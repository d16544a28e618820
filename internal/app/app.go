package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ad-report-bot/internal/alerting"
	"ad-report-bot/internal/config"
	"ad-report-bot/internal/narrative"
	"ad-report-bot/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	return alerting.NewSlackNotifier(a.Config.Slack.WebhookURL, a.Config.Slack.Timeout, a.Logger)
}

func (a *App) newGenerator() narrative.Generator {
	if a.Config.Narrative.APIKey == "" {
		return nil
	}
	return narrative.NewChatGenerator(narrative.Options{
		BaseURL:     a.Config.Narrative.BaseURL,
		APIKey:      a.Config.Narrative.APIKey,
		Model:       a.Config.Narrative.Model,
		Temperature: a.Config.Narrative.Temperature,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// ReportOptions carry the invocation flags of the report command.
type ReportOptions struct {
	// NotifyMissing sends a stale-data notice instead of exiting silently
	// when no new batch data is present.
	NotifyMissing bool
	// Force runs the full cycle even when the batch holds no new dates.
	Force bool
}

// ExportOptions hold parameters for exporting the ledger trend.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
