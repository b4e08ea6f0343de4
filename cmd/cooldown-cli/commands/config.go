package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"curriculum-scraper/internal/components/chrono"
	"curriculum-scraper/internal/components/telemetry"
	"curriculum-scraper/internal/cooldown"
	"curriculum-scraper/internal/imagesink"
	"curriculum-scraper/internal/scrapers/accessim"
	"curriculum-scraper/lib/configutil"
	cooldownsvc "curriculum-scraper/services/cooldown"

	"github.com/robfig/cron/v3"
)

type BrowserConfig struct {
	// Install downloads chromium before the first run.
	Install       bool   `json:"install"`
	UserAgent     string `json:"user_agent"`
	TimeoutMs     int    `json:"timeout_ms"`
	SettleDelayMs int    `json:"settle_delay_ms"`
}

type PublishConfig struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"`
}

// ReviewConfig configures the messages api the export documents are sent
// to, the key falls back to ANTHROPIC_API_KEY.
type ReviewConfig struct {
	Endpoint  string `json:"endpoint"`
	ApiKey    string `json:"api_key"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	DelayMs   int    `json:"delay_ms"`
}

type Config struct {
	Credentials accessim.Credentials `json:"credentials"`
	LessonUrls  []string             `json:"lesson_urls"`
	DelayMs     int                  `json:"delay_ms"`
	Export      bool                 `json:"export"`
	Debug       bool                 `json:"debug"`
	// Timezone is an IANA name used for scheduled runs, defaults to UTC.
	Timezone string `json:"timezone"`
	Schedule string `json:"schedule"`

	ScreenshotDir    string `json:"screenshot_dir"`
	ScreenshotPrefix string `json:"screenshot_prefix"`

	Browser  BrowserConfig `json:"browser"`
	Database string        `json:"database"`
	Publish  PublishConfig `json:"publish"`
	Review   ReviewConfig  `json:"review"`
}

func (c Config) Validate() error {
	if c.Schedule != "" {
		_, err := cron.ParseStandard(c.Schedule)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", c.Schedule, err)
		}
	}
	if c.Publish.Token != "" && c.Publish.Endpoint == "" {
		return fmt.Errorf("publish token is set without a publish endpoint")
	}
	if c.DelayMs != 0 && (c.DelayMs < cooldownsvc.MinDelay || c.DelayMs > cooldownsvc.MaxDelay) {
		return fmt.Errorf("delay_ms must be between %d and %d", cooldownsvc.MinDelay, cooldownsvc.MaxDelay)
	}
	if c.Review.MaxTokens < 0 || c.Review.DelayMs < 0 {
		return fmt.Errorf("review max_tokens and delay_ms cannot be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "public/screenshots"
	}
	if c.ScreenshotPrefix == "" {
		c.ScreenshotPrefix = cooldown.DefaultScreenshotPrefix
	}
	if c.Browser.SettleDelayMs == 0 {
		c.Browser.SettleDelayMs = int(accessim.DefaultSettleDelay.Milliseconds())
	}
	if email := os.Getenv("COOLDOWN_EMAIL"); email != "" {
		c.Credentials.Email = email
	}
	if password := os.Getenv("COOLDOWN_PASSWORD"); password != "" {
		c.Credentials.Password = password
	}
	if c.Review.ApiKey == "" {
		c.Review.ApiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// loadConfig reads the config file, a missing file is not an error since
// everything can also be passed with flags and environment variables.
func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if os.IsNotExist(err) {
		slog.Debug("no config file found, using defaults", "path", *configPath)
		cfg = Config{}
		err = nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

type app struct {
	cfg     Config
	clock   chrono.StandardImpl
	tel     telemetry.API
	sink    imagesink.FilesystemSink
	service cooldownsvc.Service
}

func newApp(cfg Config) (app, error) {
	tel := telemetry.SlogAPI{}

	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return app{}, fmt.Errorf("load timezone: %w", err)
	}
	sink, err := imagesink.NewFilesystemSink(cfg.ScreenshotDir)
	if err != nil {
		return app{}, fmt.Errorf("open screenshot directory: %w", err)
	}

	sessionOpts := accessim.SessionOptions{
		Install:   cfg.Browser.Install,
		UserAgent: cfg.Browser.UserAgent,
		Timeout:   millis(cfg.Browser.TimeoutMs),
	}
	service := cooldownsvc.NewService(
		func() cooldownsvc.Browser {
			return accessim.NewSession(sessionOpts, tel)
		},
		sink,
		clock,
		tel,
		cooldownsvc.ServiceOptions{
			SettleDelay:      millis(cfg.Browser.SettleDelayMs),
			ScreenshotPrefix: cfg.ScreenshotPrefix,
		},
	)

	return app{
		cfg:     cfg,
		clock:   clock,
		tel:     tel,
		sink:    sink,
		service: service,
	}, nil
}
