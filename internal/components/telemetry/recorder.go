package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	KindBroken ReportKind = iota
	KindWarning
	KindDebug
	KindCount
)

type Report struct {
	Kind   ReportKind
	Id     string
	Params []any
	Count  int64
}

// RecordingAPI keeps every report in memory, it is meant for asserting on
// telemetry in tests.
type RecordingAPI struct {
	mutex   *sync.Mutex
	reports *[]Report
}

func NewRecordingAPI() RecordingAPI {
	return RecordingAPI{
		mutex:   &sync.Mutex{},
		reports: &[]Report{},
	}
}

func (r RecordingAPI) record(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	*r.reports = append(*r.reports, report)
}

func (r RecordingAPI) ReportBroken(id string, params ...any) {
	r.record(Report{Kind: KindBroken, Id: id, Params: params})
}

func (r RecordingAPI) ReportWarning(id string, params ...any) {
	r.record(Report{Kind: KindWarning, Id: id, Params: params})
}

func (r RecordingAPI) ReportDebug(msg string, params ...any) {
	r.record(Report{Kind: KindDebug, Id: msg, Params: params})
}

func (r RecordingAPI) ReportCount(id string, count int64) {
	r.record(Report{Kind: KindCount, Id: id, Count: count})
}

func (r RecordingAPI) Reports() []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]Report, len(*r.reports))
	copy(out, *r.reports)
	return out
}

// Find returns the reports of a kind whose id ends with `suffix`, ids are
// usually namespaced by a ScopedAPI.
func (r RecordingAPI) Find(kind ReportKind, suffix string) []Report {
	var out []Report
	for _, report := range r.Reports() {
		if report.Kind == kind && strings.HasSuffix(report.Id, suffix) {
			out = append(out, report)
		}
	}
	return out
}
