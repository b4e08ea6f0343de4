package cooldown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"curriculum-scraper/internal/assert"
	"curriculum-scraper/internal/components/chrono"
	"curriculum-scraper/internal/components/telemetry"
	core "curriculum-scraper/internal/cooldown"
	"curriculum-scraper/internal/scrapers/accessim"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("curriculum.services.cooldown")

const (
	report_batch_run  = "batch.run"
	report_batch_auth = "batch.authenticate"
)

// ErrAuthFailed is returned for a lesson whose page could not be signed in to.
var ErrAuthFailed = errors.New("failed to authenticate on page")

// authFailedMessage is what a lesson result carries for ErrAuthFailed.
const authFailedMessage = "Failed to authenticate on page"

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Browser is the browser session a batch drives, accessim.Session implements
// it.
type Browser interface {
	Initialize(ctx context.Context, debug bool) error
	SetCredentials(creds accessim.Credentials)
	Credentials() accessim.Credentials
	Page() (accessim.Page, error)
	Close() error
}

type BatchOptions struct {
	Delay            time.Duration
	Export           bool
	Debug            bool
	SettleDelay      time.Duration
	ScreenshotPrefix string
	AuthTimeouts     accessim.AuthTimeouts
}

// Batch processes lesson urls one after the other on a single page.
type Batch struct {
	browser   Browser
	extractor core.Extractor
	capturer  accessim.Capturer
	time      chrono.API
	tel       telemetry.API
	opts      BatchOptions
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewBatch(
	browser Browser,
	extractor core.Extractor,
	capturer accessim.Capturer,
	clock chrono.API,
	tel telemetry.API,
	opts BatchOptions,
) Batch {
	assert.NotNil(browser)
	assert.NotNil(clock)
	assert.NotNil(tel)
	assert.NonNegative(opts.Delay)
	return Batch{
		browser:   browser,
		extractor: extractor,
		capturer:  capturer,
		time:      clock,
		tel:       telemetry.NewScopedAPI("cooldown", tel),
		opts:      opts,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run scrapes every url in order and returns exactly one result per url. A
// failing url never stops the batch. The delay is only waited between two
// consecutive urls.
func (b Batch) Run(ctx context.Context, urls []string) []core.LessonResult {
	ctx, span := tracer.Start(ctx, "Batch.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("url_count", len(urls)))

	results := make([]core.LessonResult, 0, len(urls))
	failed := 0
	for i, url := range urls {
		if i > 0 && b.opts.Delay > 0 {
			err := b.sleep(ctx, b.opts.Delay)
			if err != nil {
				b.tel.ReportDebug("delay interrupted", err)
			}
		}

		result := b.scrape(ctx, url)
		if !result.Success {
			failed++
		}
		results = append(results, result)
	}

	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d lessons failed", failed, len(urls)))
	}
	b.tel.ReportCount("lessons_failed", int64(failed))
	return results
}

func (b Batch) scrape(ctx context.Context, url string) (result core.LessonResult) {
	meta := core.ParseLessonUrl(url)
	result = core.LessonResult{
		Url:     url,
		Grade:   meta.Grade,
		Unit:    meta.Unit,
		Section: meta.Section,
		Lesson:  meta.Lesson,
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			b.tel.ReportBroken(report_batch_run, fmt.Errorf("panic while scraping %s: %w", url, err))
			result.Cooldown = nil
			result.Success = false
			msg := err.Error()
			result.Error = &msg
			result.ScrapedAt = timestamp(b.time.Now())
		}
	}()

	data, err := b.process(ctx, url, meta)
	result.ScrapedAt = timestamp(b.time.Now())
	if err != nil {
		msg := err.Error()
		if errors.Is(err, ErrAuthFailed) {
			msg = authFailedMessage
		} else {
			b.tel.ReportWarning(report_batch_run, url, err)
		}
		result.Error = &msg
		return result
	}

	result.Success = true
	result.Cooldown = data
	return result
}

func (b Batch) process(ctx context.Context, url string, meta core.LessonMeta) (*core.Data, error) {
	ctx, span := tracer.Start(ctx, "Batch.process")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := b.browser.Page()
	if err != nil {
		return nil, err
	}

	err = page.Navigate(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return nil, err
	}
	b.tel.ReportDebug("page loaded", url)

	auth := accessim.Authenticate(page, b.browser.Credentials(), b.opts.AuthTimeouts)
	if !auth.Ok() {
		b.tel.ReportWarning(report_batch_auth, url, auth.Reached.String(), auth.Err)
		span.SetStatus(codes.Error, "authentication failed")
		return nil, ErrAuthFailed
	}
	b.tel.ReportDebug("auth resolved", url, auth.State.String())

	if b.opts.SettleDelay > 0 {
		err = page.Settle(ctx, b.opts.SettleDelay)
		if err != nil {
			return nil, err
		}
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	screenshots := b.capturer.Capture(ctx, page, meta.Id(), b.opts.Debug)

	data, err := b.extractor.Extract(ctx, content, core.ExtractOptions{
		Export:           b.opts.Export,
		Url:              url,
		Lesson:           &meta,
		Screenshots:      screenshots,
		ScreenshotPrefix: b.opts.ScreenshotPrefix,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return data, nil
}
