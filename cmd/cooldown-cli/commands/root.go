package commands

import (
	"context"
	"fmt"
	"os"

	"curriculum-scraper/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose    *bool
	configPath *string
)

var rootCmd = &cobra.Command{
	Use:           "cooldown-cli",
	Short:         "cooldown-cli extracts cool-down blocks from curriculum lesson pages.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logs.")
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read, config.local.json5 next to it overrides it.")
}

func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
