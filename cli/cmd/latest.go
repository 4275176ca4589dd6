package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridhawk-systems/charger-telemetry/cli/internal/client"
	"github.com/gridhawk-systems/charger-telemetry/cli/pkg/output"
)

var latestCmd = &cobra.Command{
	Use:   "latest <device-id>",
	Short: "Show the latest reading for a charger",
	Args:  cobra.ExactArgs(1),
	Example: `  chargectl latest evc-0042
  chargectl latest evc-0042 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		record, err := apiClient(cmd).Latest(cmd.Context(), args[0])
		if errors.Is(err, client.ErrNotFound) {
			output.Warn("No telemetry found for device %s", args[0])
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch latest reading: %w", err)
		}

		if asJSON {
			return output.JSON(record)
		}

		table := output.NewTable([]string{"FIELD", "VALUE"})
		table.AddRow([]string{"device", record.DeviceID})
		table.AddRow([]string{"timestamp", record.Timestamp})
		table.AddRow([]string{"receivedAt", record.Metadata.ReceivedAt})
		table.AddRow([]string{"processedAt", record.Metadata.ProcessedAt})
		for key, value := range record.Data {
			table.AddRow([]string{"data." + key, fmt.Sprintf("%v", value)})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(latestCmd)

	latestCmd.Flags().Bool("json", false, "Print the record as JSON")
}
