package commands

import (
	"fmt"
	"os"

	"curriculum-scraper/internal/cooldown"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func lessonStatus(lesson cooldown.LessonResult) string {
	switch {
	case !lesson.Success:
		return "failed"
	case lesson.Cooldown == nil:
		return "no cool-down"
	case lesson.Cooldown.RequiresManualReview:
		return "needs review"
	default:
		return "ok"
	}
}

func printBatch(res cooldown.BatchResponse) {
	t := newTable()
	t.SetTitle(fmt.Sprintf("run %s", res.RunId))
	t.AppendHeader(table.Row{"#", "Lesson", "Status", "Title", "Math", "Screenshots", "Error"})

	for i, lesson := range res.Lessons {
		meta := cooldown.LessonMeta{
			Grade:   lesson.Grade,
			Unit:    lesson.Unit,
			Section: lesson.Section,
			Lesson:  lesson.Lesson,
		}
		title := ""
		math := 0
		screenshots := 0
		if lesson.Cooldown != nil {
			title = lesson.Cooldown.Title
			math = len(lesson.Cooldown.DetectedMath)
			screenshots = len(lesson.Cooldown.Screenshots)
		}
		errMsg := ""
		if lesson.Error != nil {
			errMsg = *lesson.Error
		}
		t.AppendRow(table.Row{i + 1, meta.Id(), lessonStatus(lesson), title, math, screenshots, errMsg})
	}

	t.AppendFooter(table.Row{
		"", "",
		fmt.Sprintf("%d/%d ok", res.TotalSuccessful, res.TotalRequested),
		"", "", "",
		res.Duration,
	})
	t.Render()
}

func printMath(items []cooldown.MathItem) {
	if len(items) == 0 {
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"Section", "Placeholder", "Screenreader", "Markup"})
	for _, item := range items {
		sr := ""
		if item.ScreenreaderText != nil {
			sr = *item.ScreenreaderText
		}
		t.AppendRow(table.Row{item.Section, item.Placeholder, sr, item.RawHtml})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 60}})
	t.Render()
}
