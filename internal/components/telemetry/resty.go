package telemetry

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

type exchangeIDKey struct{}

// InstrumentResty reports the requests issued by client through tel. Every
// request gets a sequence number so its response or error can be matched in
// the logs. Server errors and transport errors are warnings, the transport
// retries them.
func InstrumentResty(client *resty.Client, tel API) {
	var counter atomic.Uint64

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		id := counter.Add(1)
		req.SetContext(context.WithValue(req.Context(), exchangeIDKey{}, id))
		tel.ReportDebug(report_resty_request, id, req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id, _ := res.Request.Context().Value(exchangeIDKey{}).(uint64)
		params := []any{id, res.StatusCode(), res.Time().Round(time.Millisecond).String(), len(res.Body())}
		if res.StatusCode() >= http.StatusInternalServerError {
			tel.ReportWarning(report_resty_response, append(params, res.Request.URL)...)
			return nil
		}
		tel.ReportDebug(report_resty_response, params...)
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		id, _ := req.Context().Value(exchangeIDKey{}).(uint64)
		tel.ReportWarning(report_resty_response, err, id, req.Method, req.URL)
	})
}
