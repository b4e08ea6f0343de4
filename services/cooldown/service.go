package cooldown

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"curriculum-scraper/internal/assert"
	"curriculum-scraper/internal/components/chrono"
	"curriculum-scraper/internal/components/telemetry"
	core "curriculum-scraper/internal/cooldown"
	"curriculum-scraper/internal/imagesink"
	"curriculum-scraper/internal/scrapers/accessim"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_service_scrape   = "service.scrape-batch"
	report_service_validate = "service.validate-credentials"
)

var (
	ErrInvalidRequest = errors.New("invalid batch request")
	ErrSessionInit    = errors.New("failed to initialize browser session")
)

const (
	MinDelay     = 1000
	MaxDelay     = 10000
	DefaultDelay = 2000
)

// DefaultValidationUrl is a lesson known to have a cool-down behind sign in.
const DefaultValidationUrl = "https://accessim.org/6-8/grade-6/unit-1/section-a/lesson-1?a=teacher"

type BatchRequest struct {
	Credentials accessim.Credentials `json:"credentials"`
	LessonUrls  []string             `json:"lessonUrls"`
	// DelayBetweenRequests is in milliseconds, 0 means DefaultDelay.
	DelayBetweenRequests int  `json:"delayBetweenRequests"`
	EnableClaudeExport   bool `json:"enableClaudeExport"`
	Debug                bool `json:"debug"`
}

func validateCredentials(creds accessim.Credentials) error {
	if creds.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(creds.Email); err != nil {
		return fmt.Errorf("%w: email is not valid: %w", ErrInvalidRequest, err)
	}
	if creds.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidRequest)
	}
	return nil
}

func validateUrl(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: lesson url %q: %w", ErrInvalidRequest, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("%w: lesson url %q is not an absolute http(s) url", ErrInvalidRequest, raw)
	}
	return nil
}

// Validate checks the request and fills in defaults.
func (r *BatchRequest) Validate() error {
	err := validateCredentials(r.Credentials)
	if err != nil {
		return err
	}
	if len(r.LessonUrls) == 0 {
		return fmt.Errorf("%w: at least one lesson url is required", ErrInvalidRequest)
	}
	urls := make([]string, len(r.LessonUrls))
	for i, u := range r.LessonUrls {
		urls[i] = strings.TrimSpace(u)
		if err := validateUrl(urls[i]); err != nil {
			return err
		}
	}
	r.LessonUrls = urls
	if r.DelayBetweenRequests == 0 {
		r.DelayBetweenRequests = DefaultDelay
	}
	if r.DelayBetweenRequests < MinDelay || r.DelayBetweenRequests > MaxDelay {
		return fmt.Errorf(
			"%w: delay between requests must be between %d and %d ms, got %d",
			ErrInvalidRequest, MinDelay, MaxDelay, r.DelayBetweenRequests,
		)
	}
	return nil
}

func (r BatchRequest) delay() time.Duration {
	return time.Duration(r.DelayBetweenRequests) * time.Millisecond
}

// duplicateUrls returns the urls that point to a lesson already requested
// earlier in the list.
func duplicateUrls(urls []string) []string {
	seen := map[string]struct{}{}
	var duplicates []string
	for _, u := range urls {
		key := core.NormalizeUrl(u)
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, u)
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates
}

type ServiceOptions struct {
	SettleDelay      time.Duration
	ScreenshotPrefix string
	AuthTimeouts     accessim.AuthTimeouts
}

type Service struct {
	newBrowser func() Browser
	sink       imagesink.Sink
	time       chrono.API
	tel        telemetry.API
	opts       ServiceOptions
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewService creates a service that opens a fresh browser from `newBrowser`
// for every batch.
func NewService(newBrowser func() Browser, sink imagesink.Sink, clock chrono.API, tel telemetry.API, opts ServiceOptions) Service {
	assert.NotNil(newBrowser)
	assert.NotNil(sink)
	assert.NotNil(clock)
	assert.NotNil(tel)
	if opts.ScreenshotPrefix == "" {
		opts.ScreenshotPrefix = core.DefaultScreenshotPrefix
	}
	if opts.AuthTimeouts == (accessim.AuthTimeouts{}) {
		opts.AuthTimeouts = accessim.DefaultAuthTimeouts
	}
	return Service{
		newBrowser: newBrowser,
		sink:       sink,
		time:       clock,
		tel:        tel,
		opts:       opts,
		sleep:      sleepContext,
	}
}

func (s Service) batch(browser Browser, req BatchRequest) Batch {
	batch := NewBatch(
		browser,
		core.NewExtractor(s.tel),
		accessim.NewCapturer(s.sink, s.time, s.tel),
		s.time,
		s.tel,
		BatchOptions{
			Delay:            req.delay(),
			Export:           req.EnableClaudeExport,
			Debug:            req.Debug,
			SettleDelay:      s.opts.SettleDelay,
			ScreenshotPrefix: s.opts.ScreenshotPrefix,
			AuthTimeouts:     s.opts.AuthTimeouts,
		},
	)
	batch.sleep = s.sleep
	return batch
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(math.Round(d.Seconds())))
}

// ScrapeBatch runs one batch on a fresh browser session. Failures of single
// lessons are part of the response, only an invalid request or a browser
// that cannot start is returned as an error.
func (s Service) ScrapeBatch(ctx context.Context, req BatchRequest) (core.BatchResponse, error) {
	ctx, span := tracer.Start(ctx, "ScrapeBatch")
	defer span.End()

	err := req.Validate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return core.BatchResponse{}, err
	}
	for _, u := range duplicateUrls(req.LessonUrls) {
		s.tel.ReportWarning(report_service_scrape, "duplicate lesson url", u)
	}

	start := s.time.Now()
	runId := uuid.NewString()
	span.SetAttributes(
		attribute.String("run_id", runId),
		attribute.Int("url_count", len(req.LessonUrls)),
	)

	browser := s.newBrowser()
	defer func() {
		if err := browser.Close(); err != nil {
			s.tel.ReportWarning(report_service_scrape, fmt.Errorf("close browser: %w", err))
		}
	}()

	err = browser.Initialize(ctx, req.Debug)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSessionInit, err)
		s.tel.ReportBroken(report_service_scrape, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return core.BatchResponse{}, err
	}
	browser.SetCredentials(req.Credentials)

	lessons := s.batch(browser, req).Run(ctx, req.LessonUrls)
	end := s.time.Now()

	res := core.BatchResponse{
		RunId:          runId,
		Success:        true,
		TotalRequested: len(req.LessonUrls),
		Lessons:        lessons,
		StartTime:      timestamp(start),
		EndTime:        timestamp(end),
		Duration:       formatDuration(end.Sub(start)),
	}
	for _, lesson := range lessons {
		if lesson.Success {
			res.TotalSuccessful++
			continue
		}
		res.TotalFailed++
		if lesson.Error != nil {
			res.Errors = append(res.Errors, *lesson.Error)
		}
	}
	s.tel.ReportDebug("batch finished", runId, res.TotalSuccessful, res.TotalFailed, res.Duration)
	return res, nil
}

type CredentialCheck struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message"`
	HasContent    bool   `json:"hasContent"`
}

// ValidateCredentials signs in on a single lesson page and reports whether
// the credentials unlocked it, an empty testUrl means DefaultValidationUrl.
func (s Service) ValidateCredentials(ctx context.Context, creds accessim.Credentials, testUrl string) (CredentialCheck, error) {
	if testUrl == "" {
		testUrl = DefaultValidationUrl
	}
	res, err := s.ScrapeBatch(ctx, BatchRequest{
		Credentials:          creds,
		LessonUrls:           []string{testUrl},
		DelayBetweenRequests: DefaultDelay,
	})
	if err != nil {
		return CredentialCheck{}, err
	}

	lesson := res.Lessons[0]
	if lesson.Success {
		return CredentialCheck{
			Authenticated: true,
			Message:       "Credentials are valid, per-page authentication succeeded",
			HasContent:    lesson.Cooldown != nil,
		}, nil
	}

	reason := "Unable to access content"
	if lesson.Error != nil {
		reason = *lesson.Error
	}
	s.tel.ReportWarning(report_service_validate, testUrl, reason)
	return CredentialCheck{
		Message: fmt.Sprintf("Credential validation failed: %s", reason),
	}, nil
}
