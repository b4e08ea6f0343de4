package cooldown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyScreenshot(t *testing.T) {
	testCases := []struct {
		filename string
		expected ScreenshotType
	}{
		{filename: "cooldown-task-statement-6-2-c-11-1700000000000.png", expected: ScreenshotTask},
		{filename: "cooldown-task-math-6-2-c-11-0-1700000000000.png", expected: ScreenshotTask},
		{filename: "cooldown-response-math-6-2-c-11-2-1700000000000.png", expected: ScreenshotResponse},
		{filename: "cooldown-image-6-2-c-11-0-1700000000000.png", expected: ScreenshotImage},
		{filename: "cooldown-full-6-2-c-11-1700000000000.png", expected: ScreenshotFull},
		{filename: "debug-1700000000000.png", expected: ScreenshotFull},
		// task wins over everything after it
		{filename: "task-response-image.png", expected: ScreenshotTask},
		{filename: "response-image.png", expected: ScreenshotResponse},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, ClassifyScreenshot(test.filename), "filename: %s", test.filename)
	}
}

func TestFormatExport(t *testing.T) {
	bundle := FormatExport(ExportInput{
		Lesson: LessonMeta{Grade: "6", Unit: "2", Section: "c", Lesson: "11"},
		Url:    "https://accessim.org/x",
		Raw: RawZones{
			TaskStatement:   "<p>t</p>",
			StudentResponse: "<h3>Student Response</h3><p>r</p>",
		},
		Screenshots: []string{
			"cooldown-full-6-2-c-11-100.png",
			"cooldown-task-statement-6-2-c-11-101.png",
			"cooldown-response-math-6-2-c-11-0-102.png",
			"cooldown-image-6-2-c-11-0-103.png",
		},
	})

	expected := "# Grade 6 - Unit 2 - Section C - Lesson 11\n\n" +
		"**Lesson URL:** [Grade 6 - Unit 2 - Section C - Lesson 11](https://accessim.org/x)\n\n" +
		"## Student Task Statement\n\n" +
		"```html\n<p>t</p>\n```\n\n" +
		"### Task Screenshots\n\n" +
		"![cooldown-task-statement-6-2-c-11-101.png](/screenshots/cooldown-task-statement-6-2-c-11-101.png)\n\n" +
		"## Student Response\n\n" +
		"```html\n<h3>Student Response</h3><p>r</p>\n```\n\n" +
		"### Response Screenshots\n\n" +
		"![cooldown-response-math-6-2-c-11-0-102.png](/screenshots/cooldown-response-math-6-2-c-11-0-102.png)\n\n" +
		"### Additional Screenshots\n\n" +
		"![cooldown-full-6-2-c-11-100.png](/screenshots/cooldown-full-6-2-c-11-100.png)\n\n" +
		"![cooldown-image-6-2-c-11-0-103.png](/screenshots/cooldown-image-6-2-c-11-0-103.png)\n\n"
	require.Equal(t, expected, bundle.FormattedForClaude)

	require.Equal(t, "<p>t</p>", bundle.StudentTaskStatementRawHtml)
	require.Len(t, bundle.ScreenshotReferences, 4)
	require.Equal(t, ScreenshotFull, bundle.ScreenshotReferences[0].Type)
	require.Equal(t, ScreenshotImage, bundle.ScreenshotReferences[3].Type)
}

func TestFormatExportWithoutScreenshots(t *testing.T) {
	bundle := FormatExport(ExportInput{
		Lesson: LessonMeta{Grade: "7", Unit: "1", Section: "a", Lesson: "3"},
		Raw: RawZones{
			TaskStatement:   "<p>t</p>",
			StudentResponse: "<h3>Student Response</h3><p>r</p>",
		},
	})

	expected := "# Grade 7 - Unit 1 - Section A - Lesson 3\n\n" +
		"## Student Task Statement\n\n" +
		"```html\n<p>t</p>\n```\n\n" +
		"## Student Response\n\n" +
		"```html\n<h3>Student Response</h3><p>r</p>\n```\n\n"
	require.Equal(t, expected, bundle.FormattedForClaude)
	require.NotContains(t, bundle.FormattedForClaude, "Screenshots")
	require.Empty(t, bundle.ScreenshotReferences)
}

func TestFormatExportEmpty(t *testing.T) {
	bundle := FormatExport(ExportInput{
		Lesson:           LessonMeta{Grade: Unknown, Unit: Unknown, Section: Unknown, Lesson: Unknown},
		ScreenshotPrefix: "https://cdn.example.com/shots/",
		Screenshots:      []string{"cooldown-full-x-1.png"},
	})

	expected := "# Grade unknown - Unit unknown - Section UNKNOWN - Lesson unknown\n\n" +
		"## Student Task Statement\n\n" +
		"## Student Response\n\n" +
		"### Additional Screenshots\n\n" +
		"![cooldown-full-x-1.png](https://cdn.example.com/shots/cooldown-full-x-1.png)\n\n"
	require.Equal(t, expected, bundle.FormattedForClaude)
	require.NotNil(t, bundle.ScreenshotReferences)
}
