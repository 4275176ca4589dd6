package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridhawk-systems/charger-telemetry/cli/internal/client"
	"github.com/gridhawk-systems/charger-telemetry/cli/pkg/output"
	"github.com/gridhawk-systems/charger-telemetry/internal/models"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a telemetry event",
	Long:  "Send a single telemetry event to the intake endpoint",
	Example: `  chargectl send --device evc-0042 --data '{"voltage":235.1,"status":"charging"}'
  chargectl send --device evc-0042 --timestamp 2026-08-30T11:00:00.000Z`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deviceID, _ := cmd.Flags().GetString("device")
		timestamp, _ := cmd.Flags().GetString("timestamp")
		dataJSON, _ := cmd.Flags().GetString("data")

		if deviceID == "" {
			return fmt.Errorf("--device is required")
		}
		if timestamp == "" {
			timestamp = models.FormatInstant(time.Now())
		}

		var data map[string]any
		if dataJSON != "" {
			if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
				return fmt.Errorf("--data must be a JSON object: %w", err)
			}
		}

		ack, err := apiClient(cmd).Ingest(cmd.Context(), client.Event{
			DeviceID:  deviceID,
			Timestamp: timestamp,
			Data:      data,
		})
		if err != nil {
			return fmt.Errorf("failed to send event: %w", err)
		}

		output.Success("Event accepted (record %s)", ack.RecordID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringP("device", "d", "", "Charger device ID")
	sendCmd.Flags().StringP("timestamp", "t", "", "Event timestamp (default: now, UTC milliseconds)")
	sendCmd.Flags().String("data", "", "Telemetry payload as a JSON object")
}
