package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"curriculum-scraper/internal/components/chrono"
	"curriculum-scraper/lib/util/serviceutil"
	cooldownsvc "curriculum-scraper/services/cooldown"
	"curriculum-scraper/services/cooldown/publish"
	"curriculum-scraper/services/cooldown/store"

	"github.com/spf13/cobra"
)

var (
	scrapeDb       *string
	scrapePublish  *string
	scrapeSchedule *string
	scrapeOut      *string
	scrapeDelay    *int
	scrapeExport   *bool
	scrapeDebug    *bool
)

func init() {
	scrapeDb = scrapeCmd.Flags().String("db", "", "The sqlite database to save results to, ex. <dev_state>/cooldowns.db.")
	scrapePublish = scrapeCmd.Flags().String("publish", "", "The endpoint to post results to, overrides publish.endpoint.")
	scrapeSchedule = scrapeCmd.Flags().String("schedule", "", "A cron spec to scrape on repeatedly instead of once.")
	scrapeOut = scrapeCmd.Flags().StringP("out", "o", "", "Write the batch response as json to this file.")
	scrapeDelay = scrapeCmd.Flags().Int("delay", 0, "Milliseconds to wait between lessons (1000-10000).")
	scrapeExport = scrapeCmd.Flags().Bool("export", false, "Build the export document for each cool-down.")
	scrapeDebug = scrapeCmd.Flags().Bool("debug", false, "Show the browser and save a full page screenshot per lesson.")
	rootCmd.AddCommand(scrapeCmd)
}

type scrapeJob struct {
	app       app
	req       cooldownsvc.BatchRequest
	store     *store.Store
	publisher *publish.Publisher
	out       string
}

func (j scrapeJob) run(ctx context.Context) {
	res, err := j.app.service.ScrapeBatch(ctx, j.req)
	if err != nil {
		slog.Error("batch failed", "err", err)
		return
	}
	printBatch(res)

	if j.store != nil {
		err = j.store.Save(ctx, res)
		if err != nil {
			slog.Error("failed to save results", "run", res.RunId, "err", err)
		}
	}
	if j.publisher != nil {
		err = j.publisher.Publish(ctx, res)
		if err != nil {
			slog.Error("failed to publish results", "run", res.RunId, "err", err)
		}
	}
	if j.out != "" {
		encoded, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			slog.Error("failed to encode results", "err", err)
			return
		}
		err = os.WriteFile(j.out, encoded, 0644)
		if err != nil {
			slog.Error("failed to write results", "path", j.out, "err", err)
		}
	}
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [urls...] [--db <path>] [--publish <url>] [--schedule <cron spec>]",
	Short: "Scrapes the cool-downs of lesson urls given as arguments or in the config.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		a, err := newApp(cfg)
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}

		urls := cfg.LessonUrls
		if len(args) > 0 {
			urls = args
		}
		delay := cfg.DelayMs
		if *scrapeDelay > 0 {
			delay = *scrapeDelay
		}

		job := scrapeJob{
			app: a,
			req: cooldownsvc.BatchRequest{
				Credentials:          cfg.Credentials,
				LessonUrls:           urls,
				DelayBetweenRequests: delay,
				EnableClaudeExport:   cfg.Export || *scrapeExport,
				Debug:                cfg.Debug || *scrapeDebug,
			},
			out: *scrapeOut,
		}
		err = job.req.Validate()
		if err != nil {
			serviceutil.Fatal("invalid request", err)
		}

		dbPath := cfg.Database
		if *scrapeDb != "" {
			dbPath = *scrapeDb
		}
		if dbPath != "" {
			s, err := store.Open(dbPath)
			if err != nil {
				serviceutil.Fatal("failed to open db", err)
			}
			defer s.Close()
			job.store = &s
		}

		endpoint := cfg.Publish.Endpoint
		if *scrapePublish != "" {
			endpoint = *scrapePublish
		}
		if endpoint != "" {
			p := publish.NewPublisher(publish.Options{
				Endpoint: endpoint,
				Token:    cfg.Publish.Token,
			}, a.tel)
			job.publisher = &p
		}

		ctx := cmd.Context()
		schedule := cfg.Schedule
		if *scrapeSchedule != "" {
			schedule = *scrapeSchedule
		}
		if schedule == "" {
			job.run(ctx)
			return
		}

		scheduler := chrono.NewStandardCron(a.clock, a.tel)
		next, err := scheduler.Cron("scrape", schedule, func() { job.run(ctx) })
		if err != nil {
			serviceutil.Fatal("invalid schedule", err)
		}
		slog.Info(
			"scraping on schedule, press ctrl+c to stop",
			"schedule", schedule,
			"lessons", len(urls),
			"next", next.Format(time.RFC3339),
		)
		<-ctx.Done()
		scheduler.Stop()
	},
}
