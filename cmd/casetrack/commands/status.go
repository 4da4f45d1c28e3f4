package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"casetrack-backend/lib/serviceutil"
	"casetrack-backend/services/status"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Resolves the case status and prints it, without notifying anyone.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute*5)
		defer cancel()

		record, err := buildResolver(config).Resolve(ctx, config.trackedCase())
		if err != nil {
			serviceutil.Fatal("failed to resolve case status", err)
		}

		renderRecord(record)
	},
}

func renderRecord(record *status.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Field", "Value"})

	t.AppendRow(table.Row{"Case", record.CaseNumber})
	t.AppendRow(table.Row{"Status", record.Status})
	if record.FormType != "" {
		t.AppendRow(table.Row{"Form Type", record.FormType})
	}
	if record.CaseType != "" {
		t.AppendRow(table.Row{"Case Type", record.CaseType})
	}
	if record.Office != "" {
		t.AppendRow(table.Row{"Office", record.Office})
	}
	if record.HasQueueData() {
		t.AppendRow(table.Row{"Queue Position", record.PositionInQueue})
		t.AppendRow(table.Row{"Processing Rate", fmt.Sprintf("%.0f/day", record.ProcessingRate)})
	}
	if record.TotalApplications > 0 {
		t.AppendRow(table.Row{"Backlog", record.TotalApplications})
	}
	if record.CompletionDate != "" {
		t.AppendRow(table.Row{"Completion Date", record.CompletionDate})
	}
	if record.LastUpdated != "" {
		t.AppendRow(table.Row{"Last Updated", record.LastUpdated})
	}
	if record.Details != "" {
		t.AppendRow(table.Row{"Details", record.Details})
	}
	t.AppendRow(table.Row{"Source", record.DataSource})
	t.AppendRow(table.Row{"Method", record.Method})
	if record.IsMockData {
		t.AppendRow(table.Row{"Mock Data", true})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
