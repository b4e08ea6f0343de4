package telemetry

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// bodies longer than this are cut in span attributes, batch responses carry
// raw page markup and can get large.
const maxBodyAttribute = 8 * 1024

var redactedHeaders = map[string]struct{}{
	"Authorization": {},
	"Cookie":        {},
	"Set-Cookie":    {},
}

// InstrumentResty creates a span for every request made by `client`.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func headerAttributes(out *[]attribute.KeyValue, prefix string, headers http.Header) {
	for header, values := range headers {
		if _, redact := redactedHeaders[http.CanonicalHeaderKey(header)]; redact {
			*out = append(*out, attribute.String(fmt.Sprintf("%s/header: %s", prefix, header), "<redacted>"))
			continue
		}
		*out = append(*out, attribute.String(
			fmt.Sprintf("%s/header: %s", prefix, header),
			strings.Join(values, ", "),
		))
	}
}

func truncateBody(body string) string {
	if len(body) <= maxBodyAttribute {
		return body
	}
	return fmt.Sprintf("%s... (%d bytes)", body[:maxBodyAttribute], len(body))
}

func requestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	reader, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return truncateBody(string(body))
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	// the raw request only exists once it was sent
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	var attrs []attribute.KeyValue
	headerAttributes(&attrs, "request", res.Request.Header)
	headerAttributes(&attrs, "response", res.Header())
	attrs = append(
		attrs,
		attribute.String("request/body", requestBody(res.Request.RawRequest)),
		attribute.String("response/body", truncateBody(res.String())),
	)
	span.SetAttributes(attrs...)

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetName(fmt.Sprintf("http %s", req.Method))

	var attrs []attribute.KeyValue
	headerAttributes(&attrs, "request", req.Header)
	if req.RawRequest != nil {
		attrs = append(attrs, httpconv.ClientRequest(req.RawRequest)...)
		attrs = append(attrs, attribute.String("request/body", requestBody(req.RawRequest)))
	}
	span.SetAttributes(attrs...)
}
