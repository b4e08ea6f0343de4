package accessim

import (
	"context"
	"fmt"

	"curriculum-scraper/internal/assert"
	"curriculum-scraper/internal/components/chrono"
	"curriculum-scraper/internal/components/telemetry"
	"curriculum-scraper/internal/cooldown"
	"curriculum-scraper/internal/imagesink"
	"curriculum-scraper/lib/textutil"
)

const (
	report_capturer_capture  = "capturer.capture"
	report_capturer_overlays = "capturer.remove-overlays"
	report_capturer_region   = "capturer.region"
)

const (
	KindFull          = "full"
	KindTaskStatement = "task-statement"
	KindTaskMath      = "task-math"
	KindResponseMath  = "response-math"
	KindImage         = "image"
)

// Capturer takes screenshots scoped to parts of the cool-down.
type Capturer struct {
	sink    imagesink.Sink
	time    chrono.API
	tel     telemetry.API
	padding int
}

func NewCapturer(sink imagesink.Sink, clock chrono.API, tel telemetry.API) Capturer {
	assert.NotNil(sink)
	assert.NotNil(clock)
	assert.NotNil(tel)
	return Capturer{
		sink:    sink,
		time:    clock,
		tel:     telemetry.NewScopedAPI("accessim", tel),
		padding: DefaultCapturePadding,
	}
}

// NoIndex leaves the index out of a screenshot name, used for the whole
// region and the task statement which are captured once.
const NoIndex = -1

// ScreenshotName is `cooldown-{kind}-{lessonId}-[{n}-]{unix ms}.png`, n is
// the 0-based position of the element among those of its kind.
func ScreenshotName(kind, lessonId string, n int, unixMilli int64) string {
	if n != NoIndex {
		return fmt.Sprintf("cooldown-%s-%s-%d-%d.png", kind, lessonId, n, unixMilli)
	}
	return fmt.Sprintf("cooldown-%s-%s-%d.png", kind, lessonId, unixMilli)
}

type captureRun struct {
	c        Capturer
	ctx      context.Context
	lessonId string
	names    []string
}

func (r *captureRun) capture(el Element, kind string, n int) {
	name := ScreenshotName(kind, r.lessonId, n, r.c.time.Now().UnixMilli())
	contents, err := el.Screenshot(r.c.padding)
	if err != nil {
		r.c.tel.ReportWarning(report_capturer_capture, fmt.Errorf("screenshot %s: %w", name, err))
		return
	}
	id, err := r.c.sink.Store(r.ctx, contents, name)
	if err != nil {
		r.c.tel.ReportWarning(report_capturer_capture, fmt.Errorf("store %s: %w", name, err))
		return
	}
	r.names = append(r.names, id)
	r.c.tel.ReportDebug("capture written", id)
}

func (r *captureRun) captureAll(parent Element, selector, kind string) {
	elements, err := parent.Query(selector)
	if err != nil {
		r.c.tel.ReportWarning(report_capturer_capture, fmt.Errorf("query %s: %w", selector, err))
		return
	}
	for i, el := range elements {
		r.capture(el, kind, i)
	}
}

// responseZone finds the live elements after the "student response" heading
// up to the next heading of the same level.
func responseZone(region Element) ([]Element, error) {
	headings, err := region.Query(SelectorHeadings)
	if err != nil {
		return nil, err
	}
	var heading Element
	for _, h := range headings {
		text, err := h.Text()
		if err != nil {
			return nil, err
		}
		if textutil.ContainsFold(text, cooldown.ResponseHeadingText) {
			heading = h
			break
		}
	}
	if heading == nil {
		return nil, nil
	}

	level, err := heading.Tag()
	if err != nil {
		return nil, err
	}
	siblings, err := heading.FollowingSiblings()
	if err != nil {
		return nil, err
	}
	var zone []Element
	for _, s := range siblings {
		tag, err := s.Tag()
		if err != nil {
			return nil, err
		}
		if tag == level {
			break
		}
		zone = append(zone, s)
	}
	return zone, nil
}

// Capture screenshots the cool-down of the current page and returns the
// identifiers of the stored images in capture order. A capture that fails
// is reported and skipped, it never fails the lesson.
func (c Capturer) Capture(ctx context.Context, page CapturePage, lessonId string, debug bool) []string {
	run := &captureRun{c: c, ctx: ctx, lessonId: lessonId, names: []string{}}

	if debug {
		contents, err := page.FullScreenshot()
		if err == nil {
			_, err = c.sink.Store(ctx, contents, fmt.Sprintf("debug-%d.png", c.time.Now().UnixMilli()))
		}
		if err != nil {
			c.tel.ReportWarning(report_capturer_capture, fmt.Errorf("debug screenshot: %w", err))
		}
	}

	region, err := page.Region(SelectorCooldown)
	if err != nil {
		c.tel.ReportWarning(report_capturer_region, err)
		return run.names
	}
	if region == nil {
		c.tel.ReportDebug("no cool-down region to capture", lessonId)
		return run.names
	}

	removed, err := page.RemoveOverlays(InterferingSelectors)
	if err != nil {
		c.tel.ReportWarning(report_capturer_overlays, err)
	} else {
		c.tel.ReportDebug("removed overlays", removed)
	}

	run.capture(region, KindFull, NoIndex)

	tasks, err := region.Query(SelectorHighlight)
	if err != nil {
		c.tel.ReportWarning(report_capturer_capture, fmt.Errorf("query task statement: %w", err))
	} else if len(tasks) > 0 {
		run.capture(tasks[0], KindTaskStatement, NoIndex)
		run.captureAll(tasks[0], SelectorMathProcess, KindTaskMath)
	}

	zone, err := responseZone(region)
	if err != nil {
		c.tel.ReportWarning(report_capturer_capture, fmt.Errorf("locate student response: %w", err))
	}
	n := 0
	for _, el := range zone {
		maths, err := el.Query(SelectorMathProcess)
		if err != nil {
			c.tel.ReportWarning(report_capturer_capture, fmt.Errorf("query response math: %w", err))
			continue
		}
		for _, m := range maths {
			run.capture(m, KindResponseMath, n)
			n++
		}
	}

	run.captureAll(region, SelectorFigureImage, KindImage)

	c.tel.ReportCount("captures", int64(len(run.names)))
	return run.names
}
