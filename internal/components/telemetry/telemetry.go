// Package telemetry is the reporting interface handed to every component.
// Components never log directly so that tests can assert on what was
// reported.
package telemetry

// API is the reporting sink of a component.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a failure that needs a fix rather than a retry,
	// ex. a page whose layout no longer matches the extractor.
	//
	// id names the component and method (`client.call`, `query.page`), the
	// package scope is added by ScopedAPI. Details go in params, errors
	// first.
	ReportBroken(id string, params ...any)

	// ReportWarning reports a recovered failure worth looking at when it
	// repeats: a retried call, a skipped segment, an unanswered challenge.
	ReportWarning(id string, params ...any)

	ReportDebug(msg string, params ...any)

	// ReportCount reports a gauge-like value, successive counts are points
	// over time and must not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, scopes nest as
// "outer.inner.id".
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	if scoped, ok := inner.(ScopedAPI); ok {
		return ScopedAPI{namespace: scoped.namespace + "." + namespace, inner: scoped.inner}
	}
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return s.namespace + "." + id
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug("["+s.namespace+"] "+msg, params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}
