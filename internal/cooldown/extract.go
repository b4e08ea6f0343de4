package cooldown

import (
	"context"
	"fmt"
	"strings"

	"curriculum-scraper/internal/assert"
	"curriculum-scraper/internal/components/telemetry"
	"curriculum-scraper/lib/htmlutil"
	"curriculum-scraper/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var tracer = otel.Tracer("curriculum.internal.cooldown")

const (
	report_extractor_extract = "extractor.extract"
)

// Selectors of the curriculum page layout.
const (
	SelectorCooldown         = "#cooldown"
	SelectorCard             = ".im-c-card"
	SelectorCardTitle        = ".im-c-card-heading__title"
	SelectorDuration         = ".im-c-icon-heading__title"
	SelectorHighlight        = ".im-c-highlight"
	SelectorHeadings         = "h1, h2, h3, h4, h5, h6"
	ResponseHeadingText      = "student response"
	AlternativeContainerText = "cool-down"
)

type ExtractOptions struct {
	// Export enables building the export bundle, it is only built when
	// Lesson is set.
	Export bool
	Url    string
	Lesson *LessonMeta
	// Screenshots are the captured file names to reference in the export.
	Screenshots []string
	// ScreenshotPrefix is the url path screenshots are served from.
	ScreenshotPrefix string
}

type Extractor struct {
	tel       telemetry.API
	converter Converter
}

func NewExtractor(tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{
		tel:       telemetry.NewScopedAPI("cooldown", tel),
		converter: NewConverter(),
	}
}

// findContainer returns the cool-down block, falling back to the first card
// that mentions "cool-down" on layouts without the #cooldown anchor.
func findContainer(doc *goquery.Document) *goquery.Selection {
	container := doc.Find(SelectorCooldown).First()
	if container.Length() > 0 {
		return container
	}
	return doc.Find(SelectorCard).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return textutil.ContainsFold(s.Text(), AlternativeContainerText)
	}).First()
}

// responseZone finds the "student response" heading and the siblings after
// it up to the next heading of the same level.
func responseZone(container *goquery.Selection) (heading, zone *goquery.Selection) {
	heading = container.Find(SelectorHeadings).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return textutil.ContainsFold(s.Text(), ResponseHeadingText)
	}).First()
	if heading.Length() == 0 {
		return heading, heading
	}
	return heading, heading.NextUntil(goquery.NodeName(heading))
}

// detach deep copies the nodes of `sel` under a new div so they can be
// mutated without touching the document.
func detach(sel *goquery.Selection) *html.Node {
	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	for _, n := range sel.Clone().Nodes {
		wrapper.AppendChild(n)
	}
	return wrapper
}

func innerHtml(node *html.Node) (string, error) {
	var out strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		err := html.Render(&out, c)
		if err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

func outerHtml(sel *goquery.Selection) (string, error) {
	var parts []string
	for i := range sel.Nodes {
		rendered, err := goquery.OuterHtml(sel.Eq(i))
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}
	return strings.Join(parts, ""), nil
}

type zoneResult struct {
	markdown string
	math     []MathItem
}

func (e Extractor) processZone(ctx context.Context, zone *html.Node, section Section) (zoneResult, error) {
	_, span := tracer.Start(ctx, fmt.Sprintf("processZone:%s", section))
	defer span.End()

	math, err := ReplaceMath(zone, section)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to replace math")
		return zoneResult{}, err
	}
	fragment, err := innerHtml(zone)
	if err != nil {
		return zoneResult{}, err
	}
	text, err := e.converter.Convert(fragment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to convert markup")
		return zoneResult{}, err
	}

	span.SetAttributes(attribute.Int("math_count", len(math)))
	return zoneResult{markdown: text, math: math}, nil
}

// Extract reads the cool-down block out of a lesson page, nil is returned
// when the page has none. Only markup that fails to parse is an error.
func (e Extractor) Extract(ctx context.Context, page string, opts ExtractOptions) (*Data, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page")
		e.tel.ReportBroken(report_extractor_extract, err, opts.Url)
		return nil, fmt.Errorf("parse page: %w", err)
	}

	container := findContainer(doc)
	if container.Length() == 0 {
		e.tel.ReportDebug("no cool-down on page", opts.Url)
		return nil, nil
	}

	data := &Data{
		Title:        DefaultTitle,
		CanvasImages: []CanvasImage{},
		DetectedMath: []MathItem{},
		Screenshots:  []string{},
	}
	title := htmlutil.CleanText(container.Find(SelectorCardTitle).First().Text())
	if title != "" {
		data.Title = title
	}
	duration := htmlutil.CleanText(container.Find(SelectorDuration).First().Text())
	if duration != "" {
		data.Duration = &duration
	}

	task := container.Find(SelectorHighlight).First()
	if task.Length() > 0 {
		zone := detach(task.Contents())

		for _, img := range htmlutil.GetImages(ctx, goquery.NewDocumentFromNode(zone).Find("img")) {
			data.CanvasImages = append(data.CanvasImages, CanvasImage{Url: img.Url, Alt: img.Alt})
		}

		result, err := e.processZone(ctx, zone, SectionQuestionText)
		if err != nil {
			e.tel.ReportBroken(report_extractor_extract, err, opts.Url)
			return nil, fmt.Errorf("task statement: %w", err)
		}
		data.QuestionText = result.markdown
		data.DetectedMath = append(data.DetectedMath, result.math...)
		e.tel.ReportDebug("task statement extracted", opts.Url, len(result.math))
	}

	heading, response := responseZone(container)
	if response.Length() > 0 {
		result, err := e.processZone(ctx, detach(response), SectionAcceptanceCriteria)
		if err != nil {
			e.tel.ReportBroken(report_extractor_extract, err, opts.Url)
			return nil, fmt.Errorf("student response: %w", err)
		}
		data.AcceptanceCriteria = result.markdown
		data.DetectedMath = append(data.DetectedMath, result.math...)
		e.tel.ReportDebug("student response extracted", opts.Url, len(result.math))
	}

	data.HasMathContent = len(data.DetectedMath) > 0
	data.RequiresManualReview = data.HasMathContent
	if opts.Screenshots != nil {
		data.Screenshots = opts.Screenshots
	}

	if opts.Export && opts.Lesson != nil {
		raw := RawZones{}
		if task.Length() > 0 {
			raw.TaskStatement, err = task.Html()
			if err != nil {
				return nil, fmt.Errorf("task statement markup: %w", err)
			}
		}
		if response.Length() > 0 {
			raw.StudentResponse, err = outerHtml(heading.AddSelection(response))
			if err != nil {
				return nil, fmt.Errorf("student response markup: %w", err)
			}
		}
		bundle := FormatExport(ExportInput{
			Lesson:           *opts.Lesson,
			Url:              opts.Url,
			Raw:              raw,
			Screenshots:      data.Screenshots,
			ScreenshotPrefix: opts.ScreenshotPrefix,
		})
		data.ClaudeExport = &bundle
	}

	span.SetAttributes(
		attribute.String("title", data.Title),
		attribute.Int("math_count", len(data.DetectedMath)),
		attribute.Int("image_count", len(data.CanvasImages)),
	)
	return data, nil
}
