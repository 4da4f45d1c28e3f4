package commands

import (
	"fmt"
	"os"

	"casetrack-backend/services/estimate"
	"casetrack-backend/services/status"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	etaPosition   *int
	etaRate       *float64
	etaSubmission *string
)

func init() {
	etaPosition = etaCmd.Flags().Int("position", 0, "Current queue position.")
	etaRate = etaCmd.Flags().Float64("rate", 0, "Cases processed per day.")
	etaSubmission = etaCmd.Flags().String("submitted", "", "Submission date (2006-01-02), used when no position is given.")
	rootCmd.AddCommand(etaCmd)
}

var etaCmd = &cobra.Command{
	Use:   "eta [--position N --rate N | --submitted YYYY-MM-DD]",
	Short: "Estimates a completion date from queue figures.",
	Run: func(cmd *cobra.Command, args []string) {
		record := &status.Record{
			PositionInQueue: *etaPosition,
			ProcessingRate:  *etaRate,
			SubmissionDate:  *etaSubmission,
		}
		eta := estimate.New().Estimate(cmd.Context(), record)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Estimated Approval", eta.EstimatedApprovalDate.Format("Mon, Jan 2 2006")})
		t.AppendRow(table.Row{"Days Remaining", eta.DaysRemaining})
		t.AppendRow(table.Row{"Confidence", eta.ConfidenceLevel})
		t.AppendRow(table.Row{"Progress", fmt.Sprintf("%.1f%%", eta.ProgressPercentage)})
		if eta.IsFallback {
			t.AppendRow(table.Row{"Fallback", true})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
