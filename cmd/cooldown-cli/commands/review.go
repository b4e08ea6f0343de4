package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"curriculum-scraper/internal/components/chrono"
	"curriculum-scraper/internal/components/telemetry"
	"curriculum-scraper/internal/cooldown"
	"curriculum-scraper/lib/util/serviceutil"
	"curriculum-scraper/services/cooldown/review"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var reviewOut *string

func init() {
	reviewOut = reviewCmd.Flags().StringP("out", "o", "", "Write the processed lessons as json to this file.")
	rootCmd.AddCommand(reviewCmd)
}

func reviewStatus(outcome review.LessonOutcome) string {
	switch {
	case !outcome.Success:
		return "failed"
	case len(outcome.Result.NeedsReview) > 0:
		return "needs review"
	default:
		return "ok"
	}
}

func printReview(res review.BatchResult) {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Url", "Status", "Title", "Flags", "Error"})
	for i, outcome := range res.ProcessedLessons {
		title := ""
		flags := 0
		if outcome.Result != nil {
			title = outcome.Result.Title
			flags = len(outcome.Result.NeedsReview)
		}
		errMsg := ""
		if outcome.Error != nil {
			errMsg = *outcome.Error
		}
		t.AppendRow(table.Row{i + 1, outcome.LessonMetadata.Url, reviewStatus(outcome), title, flags, errMsg})
	}
	t.AppendFooter(table.Row{
		"", "",
		fmt.Sprintf("%d/%d ok", res.TotalSuccessful, res.TotalRequested),
		"", "",
		res.Duration,
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 6, WidthMax: 60}})
	t.Render()
}

var reviewCmd = &cobra.Command{
	Use:   "review <batch.json> [--out <path>]",
	Short: "Sends the export documents of a scrape written with --export --out to the messages api.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if cfg.Review.ApiKey == "" {
			serviceutil.Fatal("no api key", fmt.Errorf("set review.api_key or ANTHROPIC_API_KEY"))
		}

		contents, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read batch", err)
		}
		var batch cooldown.BatchResponse
		err = json.Unmarshal(contents, &batch)
		if err != nil {
			serviceutil.Fatal("failed to decode batch", err)
		}

		inputs := review.InputsFromBatch(batch)
		if len(inputs) == 0 {
			slog.Warn("batch has no export documents, scrape with --export", "path", args[0])
			return
		}

		clock, err := chrono.NewStandardImpl(cfg.Timezone)
		if err != nil {
			serviceutil.Fatal("failed to load timezone", err)
		}
		reviewer := review.NewReviewer(review.Options{
			Endpoint:  cfg.Review.Endpoint,
			ApiKey:    cfg.Review.ApiKey,
			Model:     cfg.Review.Model,
			MaxTokens: cfg.Review.MaxTokens,
			Delay:     millis(cfg.Review.DelayMs),
		}, clock, telemetry.SlogAPI{})

		res, err := reviewer.ProcessBatch(cmd.Context(), inputs)
		if err != nil {
			serviceutil.Fatal("failed to process batch", err)
		}
		printReview(res)

		if *reviewOut == "" {
			return
		}
		encoded, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			serviceutil.Fatal("failed to encode results", err)
		}
		err = os.WriteFile(*reviewOut, encoded, 0644)
		if err != nil {
			serviceutil.Fatal("failed to write results", err)
		}
	},
}
