package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridhawk-systems/charger-telemetry/cli/internal/seeder"
	"github.com/gridhawk-systems/charger-telemetry/cli/pkg/output"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed generated charger telemetry",
	Long:  "Generate realistic charger telemetry and send it through the intake endpoint",
	Example: `  chargectl seed --devices 20 --events 50
  chargectl seed --devices 5 --events 10 --window 1h --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, _ := cmd.Flags().GetInt("devices")
		events, _ := cmd.Flags().GetInt("events")
		window, _ := cmd.Flags().GetDuration("window")
		seed, _ := cmd.Flags().GetInt64("seed")

		if devices < 1 || events < 1 {
			return fmt.Errorf("--devices and --events must be at least 1")
		}

		output.Info("Seeding %d events across %d devices over %s", devices*events, devices, window)

		runner := seeder.NewRunner(apiClient(cmd), seeder.NewGenerator(seed))
		summary, err := runner.Run(cmd.Context(), seeder.Options{
			Devices:         devices,
			EventsPerDevice: events,
			Window:          window,
		})
		if err != nil {
			return fmt.Errorf("seeding interrupted: %w", err)
		}

		if summary.Rejected > 0 || summary.Failed > 0 {
			output.Warn("Sent %d events (%d rejected, %d failed)", summary.Sent, summary.Rejected, summary.Failed)
		} else {
			output.Success("Sent %d events", summary.Sent)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Int("devices", 10, "Number of chargers to simulate")
	seedCmd.Flags().Int("events", 20, "Events per charger")
	seedCmd.Flags().Duration("window", 24*time.Hour, "Time window the events span, ending now")
	seedCmd.Flags().Int64("seed", 0, "Random seed (0 for a random run)")
}
