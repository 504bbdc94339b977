package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
)

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{}
	for _, k := range keys {
		for _, v := range headers[k] {
			lines = append(lines, k+": "+v)
		}
	}
	return strings.Join(lines, "\n")
}

func formatRequestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return "failed to get request body: " + err.Error()
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return "failed to read request body: " + err.Error()
	}
	return string(contents)
}

// request line, request headers, request body, status line, response
// headers, response body
const exchangeTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%d %s

%s

%s`

func formatExchange(res *resty.Response) string {
	req := res.Request.RawRequest

	final := req.URL.String()
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		final = res.RawResponse.Request.URL.String()
	}

	return fmt.Sprintf(
		exchangeTemplate,
		req.Method, req.URL.String(),
		formatHeaders(req.Header),
		formatRequestBody(req),
		res.StatusCode(), final,
		formatHeaders(res.Header()),
		res.String(),
	)
}
