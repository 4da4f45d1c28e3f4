package commands

import (
	"context"
	"fmt"
	"os"

	"casetrack-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configFile *string
	verbose    *bool
)

var rootCmd = &cobra.Command{
	Use:   "casetrack",
	Short: "casetrack checks an immigration case's status and reports it.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		tel, err := telemetry.SetupFromEnv(cmd.Context(), "casetrack")
		if os.IsNotExist(err) {
			// no telemetry.json5 nearby, spans just go nowhere
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		telemetry.InstrumentPerfStats(cmd.Context())
		cobra.OnFinalize(func() {
			tel.Shutdown(context.Background())
		})
	},
}

func init() {
	configFile = rootCmd.PersistentFlags().String("config", "config.json5", "Path to the tracker config.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
