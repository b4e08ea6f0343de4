package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_http_request = "http.request"
	report_http_status  = "http.status"
	report_http_failed  = "http.failed"
)

type requestInfo struct {
	id    uint64
	start time.Time
}

type requestKey struct{}

// httpReporter reports outgoing requests through an API. Durations use the
// monotonic clock so they do not go through chrono.
type httpReporter struct {
	tel  API
	next *atomic.Uint64
}

// InstrumentResty reports every request made by `client`, responses with a
// non-2xx status are reported as warnings.
func InstrumentResty(client *resty.Client, tel API) {
	r := httpReporter{tel: tel, next: &atomic.Uint64{}}
	client.OnBeforeRequest(r.before)
	client.OnAfterResponse(r.after)
	client.OnError(r.failed)
}

func requestInfoOf(req *resty.Request) (requestInfo, bool) {
	info, ok := req.Context().Value(requestKey{}).(requestInfo)
	return info, ok
}

func (r httpReporter) before(_ *resty.Client, req *resty.Request) error {
	info := requestInfo{id: r.next.Add(1), start: time.Now()}
	req.SetContext(context.WithValue(req.Context(), requestKey{}, info))
	r.tel.ReportDebug(report_http_request, slog.Uint64("request", info.id), req.Method, req.URL)
	return nil
}

func (r httpReporter) after(_ *resty.Client, res *resty.Response) error {
	info, _ := requestInfoOf(res.Request)
	params := []any{
		slog.Uint64("request", info.id),
		slog.Duration("took", time.Since(info.start)),
		slog.Int("status", res.StatusCode()),
		slog.Int("bytes", len(res.Body())),
	}
	if res.IsError() {
		r.tel.ReportWarning(report_http_status, params...)
		return nil
	}
	r.tel.ReportDebug(report_http_status, params...)
	return nil
}

func (r httpReporter) failed(req *resty.Request, err error) {
	params := []any{err, req.Method, req.URL}
	if info, ok := requestInfoOf(req); ok {
		params = append(params, slog.Uint64("request", info.id), slog.Duration("took", time.Since(info.start)))
	}
	r.tel.ReportBroken(report_http_failed, params...)
}
