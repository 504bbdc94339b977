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
	inner := NewTestingAPI()
	scoped := NewScopedAPI("transport", inner)

	scoped.ReportBroken("client.call", errors.New("boom"))
	scoped.ReportWarning("client.call", "retrying")
	scoped.ReportCount("client.attempts", 3)
	scoped.ReportDebug("pacing")

	require.Len(t, inner.Find("broken", "transport.client.call"), 1)
	require.Len(t, inner.Find("warning", "transport.client.call"), 1)
	require.Len(t, inner.Find("debug", "[transport] pacing"), 1)
	counts := inner.Find("count", "transport.client.attempts")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(3)}, counts[0].Params)

	nested := NewScopedAPI("media", NewScopedAPI("hub", inner))
	nested.ReportWarning("sequential.fetch")
	require.Len(t, inner.Find("warning", "hub.media.sequential.fetch"), 1)
}

func TestSlogAPI(t *testing.T) {
	var out bytes.Buffer
	api := SlogAPI{Logger: slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	api.ReportWarning("client.call", errors.New("timeout"), "https://example.com")
	require.Contains(t, out.String(), "id=client.call")
	require.Contains(t, out.String(), "err=timeout")
	require.Contains(t, out.String(), "p1=https://example.com")
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	tel := NewTestingAPI()
	client := resty.New()
	InstrumentResty(client, tel)

	_, err := client.R().Get(server.URL)
	require.Nil(t, err)
	require.Len(t, tel.Find("debug", report_resty_request), 1)
	responses := tel.Find("debug", report_resty_response)
	require.Len(t, responses, 1)
	require.Equal(t, uint64(1), responses[0].Params[0])
	require.Equal(t, http.StatusOK, responses[0].Params[1])

	_, err = client.R().Get(server.URL + "/broken")
	require.Nil(t, err)
	require.Len(t, tel.Find("warning", report_resty_response), 1)

	_, err = client.R().Get("http://127.0.0.1:1/unreachable")
	require.NotNil(t, err)
	require.Len(t, tel.Find("warning", report_resty_response), 2)
}
