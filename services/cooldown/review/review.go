// Package review sends export documents of scraped cool-downs to the
// Anthropic messages API and splits the completions into lesson entries.
package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"curriculum-scraper/internal/assert"
	"curriculum-scraper/internal/components/chrono"
	"curriculum-scraper/internal/components/telemetry"
	core "curriculum-scraper/internal/cooldown"
	libtelemetry "curriculum-scraper/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("curriculum.services.cooldown.review")

const (
	report_reviewer_process = "reviewer.process"
	report_reviewer_batch   = "reviewer.batch"
)

const (
	DefaultEndpoint  = "https://api.anthropic.com/v1/messages"
	DefaultModel     = "claude-3-5-sonnet-20241022"
	DefaultMaxTokens = 4000
	DefaultDelay     = time.Second

	anthropicVersion = "2023-06-01"
	timestampLayout  = "2006-01-02T15:04:05.000Z07:00"
)

var ErrInvalidInput = errors.New("invalid review input")

type LessonMetadata struct {
	Url          string `json:"url"`
	Grade        string `json:"grade"`
	Unit         string `json:"unit"`
	Lesson       string `json:"lesson"`
	LessonNumber *int   `json:"lessonNumber,omitempty"`
}

// LessonInput is one export document to process.
type LessonInput struct {
	HtmlContent    string         `json:"htmlContent"`
	LessonMetadata LessonMetadata `json:"lessonMetadata"`
}

func (in LessonInput) Validate() error {
	if in.HtmlContent == "" {
		return fmt.Errorf("%w: html content is required", ErrInvalidInput)
	}
	link, err := url.ParseRequestURI(in.LessonMetadata.Url)
	if err != nil || link.Scheme == "" || link.Host == "" {
		return fmt.Errorf("%w: %q is not a valid url", ErrInvalidInput, in.LessonMetadata.Url)
	}
	return nil
}

type ProcessedLesson struct {
	Title              string   `json:"title"`
	LessonUrl          string   `json:"lessonUrl"`
	Canvas             string   `json:"canvas"`
	QuestionText       string   `json:"questionText"`
	AcceptanceCriteria string   `json:"acceptanceCriteria"`
	FullMarkdown       string   `json:"fullMarkdown"`
	NeedsReview        []string `json:"needsReview"`
	ProcessedAt        string   `json:"processedAt"`
}

// LessonOutcome never carries a result when Success is false.
type LessonOutcome struct {
	LessonMetadata LessonMetadata   `json:"lessonMetadata"`
	Result         *ProcessedLesson `json:"result,omitempty"`
	Success        bool             `json:"success"`
	Error          *string          `json:"error,omitempty"`
}

type BatchResult struct {
	Success          bool            `json:"success"`
	TotalRequested   int             `json:"totalRequested"`
	TotalSuccessful  int             `json:"totalSuccessful"`
	TotalFailed      int             `json:"totalFailed"`
	ProcessedLessons []LessonOutcome `json:"processedLessons"`
	StartTime        string          `json:"startTime"`
	EndTime          string          `json:"endTime"`
	Duration         string          `json:"duration"`
}

type Options struct {
	// Endpoint defaults to DefaultEndpoint.
	Endpoint  string
	ApiKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// Delay is waited between two lessons of a batch, 0 means DefaultDelay.
	Delay time.Duration
}

type Reviewer struct {
	client    *resty.Client
	endpoint  string
	model     string
	maxTokens int
	delay     time.Duration
	time      chrono.API
	tel       telemetry.API
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewReviewer(opts Options, clock chrono.API, tel telemetry.API) Reviewer {
	assert.NotEmptyStr(opts.ApiKey)
	assert.NotNil(clock)
	assert.NotNil(tel)
	assert.NonNegative(opts.Delay)
	tel = telemetry.NewScopedAPI("review", tel)

	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}

	client := resty.New()
	client.SetHeader("user-agent", "curriculum-scraper")
	client.SetHeader("x-api-key", opts.ApiKey)
	client.SetHeader("anthropic-version", anthropicVersion)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	} else {
		client.SetTimeout(2 * time.Minute)
	}
	libtelemetry.InstrumentResty(client, "curriculum.services.cooldown.review")
	telemetry.InstrumentResty(client, tel)

	return Reviewer{
		client:    client,
		endpoint:  opts.Endpoint,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		delay:     opts.Delay,
		time:      clock,
		tel:       tel,
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

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(math.Round(d.Seconds())))
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = `You turn cool-down blocks of math lessons into question bank entries.
Answer in markdown with a "## Lesson <number>" heading, the "**Lesson URL:** [title](url)" line of the input,
then the sections "**Canvas**", "**Question Text**" and "**Acceptance Criteria**" in that order.
Write math in LaTeX. Where a math expression or an image cannot be read with confidence, keep going and
insert "[NEEDS MANUAL REVIEW: <reason>]" at that spot.`

// Prompt is the user message sent for one lesson.
func Prompt(in LessonInput) string {
	var out strings.Builder
	fmt.Fprintf(&out, "Grade: %s\nUnit: %s\nLesson: %s\n", in.LessonMetadata.Grade, in.LessonMetadata.Unit, in.LessonMetadata.Lesson)
	if in.LessonMetadata.LessonNumber != nil {
		fmt.Fprintf(&out, "Lesson number: %d\n", *in.LessonMetadata.LessonNumber)
	}
	fmt.Fprintf(&out, "URL: %s\n\n", in.LessonMetadata.Url)
	out.WriteString(in.HtmlContent)
	return out.String()
}

// complete posts one prompt and returns the text blocks of the reply joined
// together.
func (r Reviewer) complete(ctx context.Context, prompt string) (string, error) {
	var (
		result messagesResponse
		failed apiError
	)
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(messagesRequest{
			Model:     r.model,
			MaxTokens: r.maxTokens,
			System:    systemPrompt,
			Messages:  []message{{Role: "user", Content: prompt}},
		}).
		SetResult(&result).
		SetError(&failed).
		Post(r.endpoint)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		if failed.Error.Message != "" {
			return "", fmt.Errorf("messages api responded %s: %s", resp.Status(), failed.Error.Message)
		}
		return "", fmt.Errorf("messages api responded %s", resp.Status())
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("messages api returned no text (stop reason %q)", result.StopReason)
	}
	return text.String(), nil
}

// ProcessLesson sends one export document and parses the completion.
func (r Reviewer) ProcessLesson(ctx context.Context, in LessonInput) (ProcessedLesson, error) {
	ctx, span := tracer.Start(ctx, "ProcessLesson")
	defer span.End()
	span.SetAttributes(attribute.String("url", in.LessonMetadata.Url))

	err := in.Validate()
	if err != nil {
		return ProcessedLesson{}, err
	}

	markdown, err := r.complete(ctx, Prompt(in))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return ProcessedLesson{}, fmt.Errorf("process %s: %w", in.LessonMetadata.Url, err)
	}
	return ParseProcessed(markdown, in.LessonMetadata, timestamp(r.time.Now())), nil
}

// ProcessBatch processes lessons one after the other with the configured
// delay in between. Every lesson is validated before any request is made,
// a lesson that fails afterwards is recorded and the batch goes on.
func (r Reviewer) ProcessBatch(ctx context.Context, lessons []LessonInput) (BatchResult, error) {
	ctx, span := tracer.Start(ctx, "ProcessBatch")
	defer span.End()

	if len(lessons) == 0 {
		return BatchResult{}, fmt.Errorf("%w: at least one lesson is required", ErrInvalidInput)
	}
	for i, lesson := range lessons {
		err := lesson.Validate()
		if err != nil {
			return BatchResult{}, fmt.Errorf("lesson %d: %w", i+1, err)
		}
	}

	start := r.time.Now()
	res := BatchResult{
		Success:          true,
		TotalRequested:   len(lessons),
		ProcessedLessons: make([]LessonOutcome, 0, len(lessons)),
		StartTime:        timestamp(start),
	}
	for i, lesson := range lessons {
		if i > 0 {
			err := r.sleep(ctx, r.delay)
			if err != nil {
				r.tel.ReportDebug("delay interrupted", err)
			}
		}

		r.tel.ReportDebug("processing lesson", position(i, len(lessons)), lesson.LessonMetadata.Url)
		outcome := LessonOutcome{LessonMetadata: lesson.LessonMetadata}
		processed, err := r.ProcessLesson(ctx, lesson)
		if err != nil {
			r.tel.ReportWarning(report_reviewer_process, lesson.LessonMetadata.Url, err)
			msg := err.Error()
			outcome.Error = &msg
			res.TotalFailed++
		} else {
			outcome.Success = true
			outcome.Result = &processed
			res.TotalSuccessful++
		}
		res.ProcessedLessons = append(res.ProcessedLessons, outcome)
	}

	end := r.time.Now()
	res.EndTime = timestamp(end)
	res.Duration = formatDuration(end.Sub(start))

	if res.TotalFailed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d lessons failed", res.TotalFailed, res.TotalRequested))
	}
	r.tel.ReportCount(report_reviewer_batch, int64(res.TotalSuccessful))
	return res, nil
}

func position(i, n int) string {
	return fmt.Sprintf("%d/%d", i+1, n)
}

// InputsFromBatch picks the lessons of a scrape batch that carry an export
// document.
func InputsFromBatch(res core.BatchResponse) []LessonInput {
	inputs := []LessonInput{}
	for _, lesson := range res.Lessons {
		if !lesson.Success || lesson.Cooldown == nil || lesson.Cooldown.ClaudeExport == nil {
			continue
		}
		document := lesson.Cooldown.ClaudeExport.FormattedForClaude
		if document == "" {
			continue
		}
		meta := LessonMetadata{
			Url:    lesson.Url,
			Grade:  lesson.Grade,
			Unit:   lesson.Unit,
			Lesson: lesson.Lesson,
		}
		if n, err := strconv.Atoi(lesson.Lesson); err == nil {
			meta.LessonNumber = &n
		}
		inputs = append(inputs, LessonInput{HtmlContent: document, LessonMetadata: meta})
	}
	return inputs
}
