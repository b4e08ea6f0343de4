package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curriculum-scraper/internal/components/chrono"
	"curriculum-scraper/internal/components/telemetry"
	core "curriculum-scraper/internal/cooldown"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const completion = `## Lesson 11

**Lesson URL:** [Grade 6 - Unit 2 - Section C - Lesson 11](https://accessim.org/6-8/grade-6/unit-2/section-c/lesson-11)

**Canvas**: A number line from 0 to 1 [NEEDS MANUAL REVIEW: tick labels]

**Question Text**:
Which is larger, $\frac{3}{4}$ or $\frac{2}{3}$?

**Acceptance Criteria**:
- $\frac{3}{4}$ [NEEDS MANUAL REVIEW]
`

var reviewStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func lessonInput(n string) LessonInput {
	return LessonInput{
		HtmlContent: "# Grade 6 - Unit 2 - Section C - Lesson " + n,
		LessonMetadata: LessonMetadata{
			Url:    "https://accessim.org/6-8/grade-6/unit-2/section-c/lesson-" + n,
			Grade:  "6",
			Unit:   "2",
			Lesson: n,
		},
	}
}

type testEnv struct {
	reviewer Reviewer
	rec      telemetry.RecordingAPI
	requests *[]messagesRequest
	headers  *[]http.Header
	sleeps   *[]time.Duration
}

// setup answers every prompt with `completion` unless the prompt mentions
// lesson-13, which gets a 529.
func setup(t *testing.T) testEnv {
	t.Helper()
	requests := []messagesRequest{}
	headers := []http.Header{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		requests = append(requests, req)
		headers = append(headers, r.Header.Clone())

		w.Header().Set("content-type", "application/json")
		if strings.Contains(req.Messages[0].Content, "lesson-13") {
			w.WriteHeader(529)
			w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
			return
		}
		json.NewEncoder(w).Encode(messagesResponse{
			Content:    []contentBlock{{Type: "text", Text: completion}},
			StopReason: "end_turn",
		})
	}))
	t.Cleanup(server.Close)

	rec := telemetry.NewRecordingAPI()
	reviewer := NewReviewer(
		Options{Endpoint: server.URL, ApiKey: "sk-test", Model: "test-model", MaxTokens: 1000},
		chrono.NewFixedImpl(reviewStart, time.Second),
		rec,
	)
	sleeps := []time.Duration{}
	reviewer.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return testEnv{reviewer: reviewer, rec: rec, requests: &requests, headers: &headers, sleeps: &sleeps}
}

func TestProcessLesson(t *testing.T) {
	env := setup(t)
	in := lessonInput("11")
	n := 11
	in.LessonMetadata.LessonNumber = &n

	processed, err := env.reviewer.ProcessLesson(context.Background(), in)
	require.NoError(t, err)

	expected := ProcessedLesson{
		Title:              "## Lesson 11",
		LessonUrl:          "https://accessim.org/6-8/grade-6/unit-2/section-c/lesson-11",
		Canvas:             "A number line from 0 to 1 [NEEDS MANUAL REVIEW: tick labels]",
		QuestionText:       `Which is larger, $\frac{3}{4}$ or $\frac{2}{3}$?`,
		AcceptanceCriteria: `- $\frac{3}{4}$ [NEEDS MANUAL REVIEW]`,
		FullMarkdown:       completion,
		NeedsReview:        []string{"[NEEDS MANUAL REVIEW: tick labels]", "[NEEDS MANUAL REVIEW]"},
		ProcessedAt:        "2024-03-01T12:00:00.000Z",
	}
	if diff := cmp.Diff(expected, processed); diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, *env.requests, 1)
	req := (*env.requests)[0]
	require.Equal(t, "test-model", req.Model)
	require.Equal(t, 1000, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	require.Equal(t, "user", req.Messages[0].Role)
	require.Contains(t, req.Messages[0].Content, "Lesson number: 11\n")
	require.True(t, strings.HasSuffix(req.Messages[0].Content, in.HtmlContent))

	header := (*env.headers)[0]
	require.Equal(t, "sk-test", header.Get("x-api-key"))
	require.Equal(t, anthropicVersion, header.Get("anthropic-version"))
}

func TestProcessLessonRejected(t *testing.T) {
	env := setup(t)

	_, err := env.reviewer.ProcessLesson(context.Background(), lessonInput("13"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "529")
	require.Contains(t, err.Error(), "Overloaded")

	_, err = env.reviewer.ProcessLesson(context.Background(), LessonInput{LessonMetadata: lessonInput("1").LessonMetadata})
	require.ErrorIs(t, err, ErrInvalidInput)

	bad := lessonInput("1")
	bad.LessonMetadata.Url = "lesson-1"
	_, err = env.reviewer.ProcessLesson(context.Background(), bad)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Len(t, *env.requests, 1)
}

func TestProcessBatch(t *testing.T) {
	env := setup(t)

	res, err := env.reviewer.ProcessBatch(context.Background(), []LessonInput{
		lessonInput("11"),
		lessonInput("13"),
		lessonInput("14"),
	})
	require.NoError(t, err)

	require.True(t, res.Success)
	require.Equal(t, 3, res.TotalRequested)
	require.Equal(t, 2, res.TotalSuccessful)
	require.Equal(t, 1, res.TotalFailed)
	require.Len(t, res.ProcessedLessons, 3)

	for i, outcome := range res.ProcessedLessons {
		require.Equal(t, outcome.Success, outcome.Result != nil, "lesson %d", i)
		require.Equal(t, outcome.Success, outcome.Error == nil, "lesson %d", i)
	}
	require.Equal(t, "13", res.ProcessedLessons[1].LessonMetadata.Lesson)
	require.Contains(t, *res.ProcessedLessons[1].Error, "529")
	require.Equal(t, "## Lesson 11", res.ProcessedLessons[2].Result.Title)

	// start, one per successful lesson, end
	require.Equal(t, "2024-03-01T12:00:00.000Z", res.StartTime)
	require.Equal(t, "2024-03-01T12:00:03.000Z", res.EndTime)
	require.Equal(t, "3s", res.Duration)

	require.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, *env.sleeps)
	require.Len(t, env.rec.Find(telemetry.KindWarning, report_reviewer_process), 1)
}

func TestProcessBatchValidatesFirst(t *testing.T) {
	env := setup(t)

	_, err := env.reviewer.ProcessBatch(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	bad := lessonInput("12")
	bad.HtmlContent = ""
	_, err = env.reviewer.ProcessBatch(context.Background(), []LessonInput{lessonInput("11"), bad})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "lesson 2")
	require.Empty(t, *env.requests)
}

func TestParseProcessedFallbacks(t *testing.T) {
	meta := lessonInput("7").LessonMetadata
	processed := ParseProcessed("Nothing useful here.", meta, "now")

	expected := ProcessedLesson{
		Title:        "Lesson 7",
		LessonUrl:    meta.Url,
		FullMarkdown: "Nothing useful here.",
		NeedsReview:  []string{},
		ProcessedAt:  "now",
	}
	if diff := cmp.Diff(expected, processed); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseProcessedSections(t *testing.T) {
	testCases := []struct {
		name     string
		markdown string
		canvas   string
		question string
		criteria string
	}{
		{
			name:     "labels without colons",
			markdown: "**Canvas** none\n**Question Text** What is 2+2?\n**Acceptance Criteria** 4",
			canvas:   "none",
			question: "What is 2+2?",
			criteria: "4",
		},
		{
			name:     "case insensitive",
			markdown: "**canvas**: a\n**QUESTION TEXT**: b\n**acceptance criteria**: c",
			canvas:   "a",
			question: "b",
			criteria: "c",
		},
		{
			name:     "canvas runs to the end without a question",
			markdown: "**Canvas**: only a canvas\n\nand more",
			canvas:   "only a canvas\n\nand more",
		},
		{
			name:     "question runs to the end without criteria",
			markdown: "**Question Text**: q",
			question: "q",
		},
	}

	for _, test := range testCases {
		processed := ParseProcessed(test.markdown, LessonMetadata{}, "")
		require.Equal(t, test.canvas, processed.Canvas, test.name)
		require.Equal(t, test.question, processed.QuestionText, test.name)
		require.Equal(t, test.criteria, processed.AcceptanceCriteria, test.name)
	}
}

func TestInputsFromBatch(t *testing.T) {
	failure := "Failed to authenticate on page"
	res := core.BatchResponse{
		Lessons: []core.LessonResult{
			{
				Url: "https://accessim.org/6-8/grade-6/unit-2/section-c/lesson-11", Grade: "6", Unit: "2", Section: "c", Lesson: "11",
				Success: true,
				Cooldown: &core.Data{ClaudeExport: &core.ExportBundle{
					FormattedForClaude: "# Grade 6 - Unit 2 - Section C - Lesson 11\n\n",
				}},
			},
			// no export was requested
			{Url: "https://accessim.org/6-8/grade-6/unit-2/section-c/lesson-12", Success: true, Cooldown: &core.Data{}},
			// no cool-down on the page
			{Url: "https://accessim.org/6-8/grade-6/unit-2/section-c/lesson-13", Success: true},
			{Url: "https://accessim.org/6-8/grade-6/unit-2/section-c/lesson-14", Error: &failure},
			{
				Url: "https://accessim.org/6-8/grade-6/unit-2/section-c/lesson-x", Grade: "6", Unit: "2", Section: "c", Lesson: "x",
				Success: true,
				Cooldown: &core.Data{ClaudeExport: &core.ExportBundle{
					FormattedForClaude: "# Grade 6 - Unit 2 - Section C - Lesson x\n\n",
				}},
			},
		},
	}

	inputs := InputsFromBatch(res)
	require.Len(t, inputs, 2)

	require.Equal(t, "# Grade 6 - Unit 2 - Section C - Lesson 11\n\n", inputs[0].HtmlContent)
	require.Equal(t, "11", inputs[0].LessonMetadata.Lesson)
	require.NotNil(t, inputs[0].LessonMetadata.LessonNumber)
	require.Equal(t, 11, *inputs[0].LessonMetadata.LessonNumber)
	require.NoError(t, inputs[0].Validate())

	require.Nil(t, inputs[1].LessonMetadata.LessonNumber)
	require.Empty(t, InputsFromBatch(core.BatchResponse{}))
}
