package review

import (
	"regexp"
	"strings"
)

var (
	titlePattern      = regexp.MustCompile(`(?i)##\s*Lesson\s*\d+`)
	lessonUrlPattern  = regexp.MustCompile(`\*\*Lesson URL:\*\*\s*\[([^\]]+)\]\(([^)]+)\)`)
	canvasLabel       = regexp.MustCompile(`(?i)\*\*Canvas\*\*:?\s*`)
	questionLabel     = regexp.MustCompile(`(?i)\*\*Question Text\*\*:?\s*`)
	criteriaLabel     = regexp.MustCompile(`(?i)\*\*Acceptance Criteria\*\*:?\s*`)
	needsReviewMarker = regexp.MustCompile(`\[NEEDS MANUAL REVIEW[^\]]*\]`)
)

// labeledSection is the text after the first `start` label up to the first
// `stop` label following it, or to the end when stop is nil or absent.
func labeledSection(markdown string, start, stop *regexp.Regexp) string {
	loc := start.FindStringIndex(markdown)
	if loc == nil {
		return ""
	}
	rest := markdown[loc[1]:]
	if stop != nil {
		if end := stop.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
	}
	return strings.TrimSpace(rest)
}

// ParseProcessed splits a completion into its labeled sections. Missing
// sections are empty, a missing title or url falls back to the metadata.
func ParseProcessed(markdown string, meta LessonMetadata, processedAt string) ProcessedLesson {
	title := "Lesson " + meta.Lesson
	if match := titlePattern.FindString(markdown); match != "" {
		title = strings.TrimSpace(match)
	}

	lessonUrl := meta.Url
	if match := lessonUrlPattern.FindStringSubmatch(markdown); match != nil {
		lessonUrl = match[2]
	}

	needsReview := needsReviewMarker.FindAllString(markdown, -1)
	if needsReview == nil {
		needsReview = []string{}
	}

	return ProcessedLesson{
		Title:              title,
		LessonUrl:          lessonUrl,
		Canvas:             labeledSection(markdown, canvasLabel, questionLabel),
		QuestionText:       labeledSection(markdown, questionLabel, criteriaLabel),
		AcceptanceCriteria: labeledSection(markdown, criteriaLabel, nil),
		FullMarkdown:       markdown,
		NeedsReview:        needsReview,
		ProcessedAt:        processedAt,
	}
}
