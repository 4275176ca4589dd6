package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridhawk-systems/charger-telemetry/cli/internal/client"
	"github.com/gridhawk-systems/charger-telemetry/cli/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chargectl",
	Short: "Charger telemetry CLI",
	Long: `chargectl is the command-line interface for the charger telemetry service.

Send telemetry events, look up the latest reading per charger, seed demo
data, and check service health from your terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.chargectl/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "telemetry service URL (overrides config)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

func apiClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = cfg.ServerURL
	}
	return client.New(server)
}
