package telemetry

import (
	"strings"
	"sync"
)

type Report struct {
	Kind   string
	ID     string
	Params []any
}

// TestingAPI records every report so tests can assert on what a component
// considered broken or suspicious.
type TestingAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func NewTestingAPI() *TestingAPI {
	return &TestingAPI{}
}

func (t *TestingAPI) add(kind, id string, params []any) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.reports = append(t.reports, Report{Kind: kind, ID: id, Params: params})
}

func (t *TestingAPI) ReportBroken(id string, params ...any) {
	t.add("broken", id, params)
}

func (t *TestingAPI) ReportWarning(id string, params ...any) {
	t.add("warning", id, params)
}

func (t *TestingAPI) ReportDebug(msg string, params ...any) {
	t.add("debug", msg, params)
}

func (t *TestingAPI) ReportCount(id string, count int64) {
	t.add("count", id, []any{count})
}

// Find returns the reports of the given kind whose id contains substr.
func (t *TestingAPI) Find(kind, substr string) []Report {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var out []Report
	for _, r := range t.reports {
		if r.Kind == kind && strings.Contains(r.ID, substr) {
			out = append(out, r)
		}
	}
	return out
}
