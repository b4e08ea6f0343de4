package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"curriculum-scraper/internal/components/telemetry"
	"curriculum-scraper/internal/cooldown"
	"curriculum-scraper/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	extractUrl    *string
	extractExport *bool
	extractJson   *bool
)

func init() {
	extractUrl = extractCmd.Flags().String("url", "", "The url the page was saved from, used for lesson metadata.")
	extractExport = extractCmd.Flags().Bool("export", false, "Print the export document instead of the extracted text.")
	extractJson = extractCmd.Flags().Bool("json", false, "Print the extracted cool-down as json.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <page.html> [--url <lesson url>] [--export] [--json]",
	Short: "Extracts the cool-down of a saved lesson page without a browser.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		page, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read page", err)
		}

		meta := cooldown.ParseLessonUrl(*extractUrl)
		extractor := cooldown.NewExtractor(telemetry.SlogAPI{})
		data, err := extractor.Extract(cmd.Context(), string(page), cooldown.ExtractOptions{
			Export: *extractExport,
			Url:    *extractUrl,
			Lesson: &meta,
		})
		if err != nil {
			serviceutil.Fatal("failed to extract cool-down", err)
		}
		if data == nil {
			slog.Warn("page has no cool-down", "path", args[0])
			return
		}

		switch {
		case *extractJson:
			encoded, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				serviceutil.Fatal("failed to encode cool-down", err)
			}
			fmt.Println(string(encoded))
		case *extractExport:
			fmt.Print(data.ClaudeExport.FormattedForClaude)
		default:
			fmt.Printf("# %s\n\n", data.Title)
			if data.Duration != nil {
				fmt.Printf("_%s_\n\n", *data.Duration)
			}
			fmt.Printf("## Question\n\n%s\n\n", data.QuestionText)
			fmt.Printf("## Acceptance criteria\n\n%s\n\n", data.AcceptanceCriteria)
			printMath(data.DetectedMath)
		}
	},
}
