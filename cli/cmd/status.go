package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridhawk-systems/charger-telemetry/cli/pkg/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service health and processing counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := apiClient(cmd)

		report, err := api.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch health: %w", err)
		}

		switch report.Status {
		case "healthy":
			output.Success("Service is healthy")
		case "degraded":
			output.Warn("Service is degraded")
		default:
			output.Error("Service is %s", report.Status)
		}

		table := output.NewTable([]string{"COMPONENT", "STATUS"})
		table.AddRow([]string{"store", report.Components.Store})
		if report.Components.DeadLetter != "" {
			detail := report.Components.DeadLetter
			if report.Components.DeadLetterDepth != nil {
				detail = fmt.Sprintf("%s (depth %d)", detail, *report.Components.DeadLetterDepth)
			}
			table.AddRow([]string{"deadLetter", detail})
		}
		table.Render()

		stats, err := api.Stats(cmd.Context())
		if err != nil {
			output.Warn("Could not fetch processing counters: %v", err)
			return nil
		}

		fmt.Println()
		counters := output.NewTable([]string{"COUNTER", "VALUE"})
		counters.AddRow([]string{"uptime_seconds", fmt.Sprintf("%d", stats.UptimeSeconds)})
		counters.AddRow([]string{"processed", fmt.Sprintf("%d", stats.Processed)})
		counters.AddRow([]string{"rejected", fmt.Sprintf("%d", stats.Rejected)})
		counters.AddRow([]string{"failed", fmt.Sprintf("%d", stats.Failed)})
		counters.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
