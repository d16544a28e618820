package cli

import (
	"github.com/spf13/cobra"

	"ad-report-bot/internal/app"
)

var (
	reportNotifyMissing bool
	reportForce         bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one merge-and-report cycle against the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ReportOptions{
			NotifyMissing: reportNotifyMissing,
			Force:         reportForce,
		}
		return getApp().Report(cmd.Context(), opts)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportNotifyMissing, "notify-missing", false, "Send a Slack notice when no new data is present")
	reportCmd.Flags().BoolVar(&reportForce, "force", false, "Process and send even when the batch holds no new dates")
}
