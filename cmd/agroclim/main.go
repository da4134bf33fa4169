// Command agroclim extracts per-point daily climate series from gridded
// historical and forecast datasets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "agroclim",
	Short:         "Extract per-point daily climate series from gridded datasets",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML run configuration (environment variables take precedence)")
	rootCmd.AddCommand(combinedCmd(), amberCmd(), forecastCmd(), maskCmd(), scheduleCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
