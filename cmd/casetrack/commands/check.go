package commands

import (
	"context"
	"log/slog"
	"time"

	"casetrack-backend/lib/serviceutil"
	"casetrack-backend/services/estimate"
	"casetrack-backend/services/notify"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolves the case status, estimates an ETA and sends the report.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}

		// fail before any network work if delivery can't happen
		notifier, err := notify.New(config.Notify.Method, notify.Config{Smtp: config.Notify.Smtp})
		if err != nil {
			serviceutil.Fatal("failed to set up notifications", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute*5)
		defer cancel()

		record, err := buildResolver(config).Resolve(ctx, config.trackedCase())
		if err != nil {
			serviceutil.Fatal("failed to resolve case status", err)
		}

		var eta *estimate.ETA
		if record.HasQueueData() || record.SubmissionDate != "" {
			e := config.estimator().Estimate(ctx, record)
			eta = &e
			slog.InfoContext(
				ctx, "estimated completion",
				"date", e.EstimatedApprovalDate.Format("2006-01-02"),
				"days_remaining", e.DaysRemaining,
				"confidence", e.ConfidenceLevel,
				"fallback", e.IsFallback,
			)
		}

		err = notifier.Send(ctx, record, eta)
		if err != nil {
			serviceutil.Fatal("failed to send report", err)
		}
		slog.InfoContext(ctx, "report delivered", "status", record.Status)
	},
}
