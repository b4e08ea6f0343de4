package cooldown

import (
	"fmt"
	"slices"
	"strings"
)

const DefaultScreenshotPrefix = "/screenshots"

// RawZones is the markup of both zones as it was on the page, before any
// math was replaced.
type RawZones struct {
	TaskStatement   string
	StudentResponse string
}

type ExportInput struct {
	Lesson           LessonMeta
	Url              string
	Raw              RawZones
	Screenshots      []string
	ScreenshotPrefix string
}

// ClassifyScreenshot decides which part of the export a screenshot belongs
// to from its file name. The checks run in order so a "task" capture is
// never taken for anything else.
func ClassifyScreenshot(filename string) ScreenshotType {
	switch {
	case strings.Contains(filename, "task"):
		return ScreenshotTask
	case strings.Contains(filename, "response"):
		return ScreenshotResponse
	case strings.Contains(filename, "image"):
		return ScreenshotImage
	default:
		return ScreenshotFull
	}
}

func screenshotMarkdown(prefix, filename string) string {
	if prefix == "" {
		prefix = DefaultScreenshotPrefix
	}
	return fmt.Sprintf("![%s](%s/%s)", filename, strings.TrimRight(prefix, "/"), filename)
}

// writeReferences writes `heading` followed by the references of the given
// types, nothing is written when there are none.
func writeReferences(out *strings.Builder, heading string, refs []ScreenshotReference, types ...ScreenshotType) {
	var matched []ScreenshotReference
	for _, ref := range refs {
		if slices.Contains(types, ref.Type) {
			matched = append(matched, ref)
		}
	}
	if len(matched) == 0 {
		return
	}
	out.WriteString(heading)
	out.WriteString("\n\n")
	for _, ref := range matched {
		out.WriteString(ref.MarkdownReference)
		out.WriteString("\n\n")
	}
}

func writeFenced(out *strings.Builder, markup string) {
	if markup == "" {
		return
	}
	out.WriteString("```html\n")
	out.WriteString(markup)
	out.WriteString("\n```\n\n")
}

// FormatExport assembles the export document handed to downstream review.
// The layout of FormattedForClaude is consumed by other tools and must stay
// stable.
func FormatExport(in ExportInput) ExportBundle {
	refs := make([]ScreenshotReference, 0, len(in.Screenshots))
	for _, filename := range in.Screenshots {
		refs = append(refs, ScreenshotReference{
			Filename:          filename,
			Type:              ClassifyScreenshot(filename),
			MarkdownReference: screenshotMarkdown(in.ScreenshotPrefix, filename),
		})
	}

	title := fmt.Sprintf(
		"Grade %s - Unit %s - Section %s - Lesson %s",
		in.Lesson.Grade,
		in.Lesson.Unit,
		strings.ToUpper(in.Lesson.Section),
		in.Lesson.Lesson,
	)

	var out strings.Builder
	fmt.Fprintf(&out, "# %s\n\n", title)
	if in.Url != "" {
		fmt.Fprintf(&out, "**Lesson URL:** [%s](%s)\n\n", title, in.Url)
	}

	out.WriteString("## Student Task Statement\n\n")
	writeFenced(&out, in.Raw.TaskStatement)
	writeReferences(&out, "### Task Screenshots", refs, ScreenshotTask)

	out.WriteString("## Student Response\n\n")
	writeFenced(&out, in.Raw.StudentResponse)
	writeReferences(&out, "### Response Screenshots", refs, ScreenshotResponse)

	writeReferences(&out, "### Additional Screenshots", refs, ScreenshotImage, ScreenshotFull)

	return ExportBundle{
		StudentTaskStatementRawHtml: in.Raw.TaskStatement,
		StudentResponseRawHtml:      in.Raw.StudentResponse,
		ScreenshotReferences:        refs,
		FormattedForClaude:          out.String(),
	}
}
