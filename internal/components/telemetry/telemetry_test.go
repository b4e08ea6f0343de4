package telemetry

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecordingAPI()
	scoped := NewScopedAPI("accessim", NewScopedAPI("capturer", rec))

	scoped.ReportBroken("capturer.capture", "boom")
	scoped.ReportWarning("capturer.capture", 1)
	scoped.ReportDebug("capture written")
	scoped.ReportCount("captures", 3)

	reports := rec.Reports()
	require.Len(t, reports, 4)
	require.Equal(t, "capturer: accessim: capturer.capture", reports[0].Id)
	require.Equal(t, []any{"boom"}, reports[0].Params)
	require.Equal(t, KindWarning, reports[1].Kind)
	require.Equal(t, "capturer: accessim: capture written", reports[2].Id)
	require.Equal(t, int64(3), reports[3].Count)

	require.Len(t, rec.Find(KindBroken, "capturer.capture"), 1)
	require.Empty(t, rec.Find(KindBroken, "unknown"))
}

func TestSlogArgs(t *testing.T) {
	args := slogArgs([]any{"id", "batch.run"}, []any{
		errors.New("navigate failed"),
		"https://accessim.org/lesson-1",
		slog.Int("attempt", 2),
		errors.New("second"),
	})
	require.Equal(t, []any{
		"id", "batch.run",
		"err", "navigate failed",
		"params.1", "https://accessim.org/lesson-1",
		slog.Int("attempt", 2),
		"params.3", "second",
	}, args)
}

func TestSlogAPIWritesToLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	tel := SlogAPI{Logger: slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	tel.ReportBroken("session.initialize", errors.New("no browser"))
	tel.ReportDebug("page settled")

	out := buf.String()
	require.Contains(t, out, `msg="broken component" id=session.initialize err="no browser"`)
	require.Contains(t, out, `msg="page settled"`)
}

func TestInstrumentResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	rec := NewRecordingAPI()
	client := resty.New().SetBaseURL(srv.URL)
	InstrumentResty(client, rec)

	_, err := client.R().Get("/ok")
	require.NoError(t, err)
	_, err = client.R().Get("/broken")
	require.NoError(t, err)

	require.Len(t, rec.Find(KindDebug, report_http_request), 2)
	require.Len(t, rec.Find(KindDebug, report_http_status), 1)

	warnings := rec.Find(KindWarning, report_http_status)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Params, slog.Int("status", http.StatusInternalServerError))
}
