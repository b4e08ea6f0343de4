package telemetry

import (
	"fmt"
)

// API is where every component sends its logs and counts. Components only
// see this interface so tests can swap in a RecordingAPI and assert on what
// was reported.
type API interface {
	// ReportBroken is for failures someone needs to look at.
	//
	// `id` names the component and operation, not the step that failed:
	// a lesson whose navigation failed inside Batch.Run is reported as
	// `batch.run` with the url and error as params. Ids are lowercase, dots
	// separate a type from its method and dashes join words
	// (`capturer.remove-overlays`). Package prefixes come from ScopedAPI so
	// ids stay short, see the `report_*` constants of each package.
	ReportBroken(id string, params ...any)

	// ReportWarning is for things that went wrong without breaking the
	// result, a screenshot that could not be taken for example. Ids follow
	// ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug is progress information: page loaded, auth resolved,
	// zone extracted, capture written.
	ReportDebug(msg string, params ...any)

	// ReportCount records a gauge value at the current time, values are
	// points in a series and must not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace before passing it on.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scoped(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
