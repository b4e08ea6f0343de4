package cooldown

// Section identifies which zone of the cool-down a math expression came from.
type Section string

const (
	SectionQuestionText       Section = "questionText"
	SectionAcceptanceCriteria Section = "acceptanceCriteria"
)

const DefaultTitle = "Cool-down"

type CanvasImage struct {
	Url string `json:"url"`
	Alt string `json:"alt"`
}

// MathItem is a math sub-element that was pulled out of a zone and replaced
// by its placeholder.
type MathItem struct {
	Section Section `json:"section"`
	// RawHtml is the verbatim outer markup of the element before replacement.
	RawHtml          string  `json:"rawHtml"`
	ScreenreaderText *string `json:"screenreaderText"`
	Placeholder      string  `json:"placeholder"`
	// MathIndex is 0 based and counted separately for each section.
	MathIndex int `json:"mathIndex"`
}

type ScreenshotType string

const (
	ScreenshotTask     ScreenshotType = "task"
	ScreenshotResponse ScreenshotType = "response"
	ScreenshotImage    ScreenshotType = "image"
	ScreenshotFull     ScreenshotType = "full"
)

type ScreenshotReference struct {
	Filename          string         `json:"filename"`
	Type              ScreenshotType `json:"type"`
	MarkdownReference string         `json:"markdownReference"`
}

type ExportBundle struct {
	StudentTaskStatementRawHtml string                `json:"studentTaskStatement_rawHtml"`
	StudentResponseRawHtml      string                `json:"studentResponse_rawHtml"`
	ScreenshotReferences        []ScreenshotReference `json:"screenshotReferences"`
	FormattedForClaude          string                `json:"formattedForClaude"`
}

// Data is everything extracted from the cool-down block of one lesson page.
type Data struct {
	Title                string        `json:"title"`
	Duration             *string       `json:"duration,omitempty"`
	CanvasImages         []CanvasImage `json:"canvasImages"`
	QuestionText         string        `json:"questionText"`
	AcceptanceCriteria   string        `json:"acceptanceCriteria"`
	DetectedMath         []MathItem    `json:"detectedMath"`
	HasMathContent       bool          `json:"hasMathContent"`
	RequiresManualReview bool          `json:"requiresManualReview"`
	Screenshots          []string      `json:"screenshots"`
	ClaudeExport         *ExportBundle `json:"claudeExport,omitempty"`
}

// LessonResult is the outcome of scraping one URL. A failed result never
// carries a cool-down, a successful result without one means the page had no
// cool-down block.
type LessonResult struct {
	Url       string  `json:"url"`
	Grade     string  `json:"grade"`
	Unit      string  `json:"unit"`
	Section   string  `json:"section"`
	Lesson    string  `json:"lesson"`
	Cooldown  *Data   `json:"cooldown,omitempty"`
	ScrapedAt string  `json:"scrapedAt"`
	Success   bool    `json:"success"`
	Error     *string `json:"error,omitempty"`
}

type BatchResponse struct {
	RunId           string         `json:"runId"`
	Success         bool           `json:"success"`
	TotalRequested  int            `json:"totalRequested"`
	TotalSuccessful int            `json:"totalSuccessful"`
	TotalFailed     int            `json:"totalFailed"`
	Lessons         []LessonResult `json:"lessons"`
	Errors          []string       `json:"errors,omitempty"`
	StartTime       string         `json:"startTime"`
	EndTime         string         `json:"endTime"`
	Duration        string         `json:"duration"`
}
