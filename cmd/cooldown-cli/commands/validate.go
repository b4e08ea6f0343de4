package commands

import (
	"curriculum-scraper/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [test url]",
	Short: "Checks that the configured credentials can sign in on a lesson page.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		a, err := newApp(cfg)
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}

		testUrl := ""
		if len(args) > 0 {
			testUrl = args[0]
		}
		check, err := a.service.ValidateCredentials(cmd.Context(), cfg.Credentials, testUrl)
		if err != nil {
			serviceutil.Fatal("failed to validate credentials", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Email", "Authenticated", "Cool-down found", "Message"})
		t.AppendRow(table.Row{cfg.Credentials.Email, check.Authenticated, check.HasContent, check.Message})
		t.Render()
	},
}
