package main

import (
	"os"

	"github.com/gridhawk-systems/charger-telemetry/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
