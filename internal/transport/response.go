package transport

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

type Request struct {
	// Target is an absolute url or a path relative to the language host.
	Target  string
	Method  string
	Form    url.Values
	Body    []byte
	Headers map[string]string
	// Timeout bounds a single attempt, zero means the client default.
	Timeout time.Duration
	// Strict turns a non-2xx final response into a HttpStatusFailure.
	Strict bool
}

// Get is a strict GET request.
func Get(target string) Request {
	return Request{Target: target, Method: http.MethodGet, Strict: true}
}

// Post is a strict POST request with a form body.
func Post(target string, form url.Values) Request {
	return Request{Target: target, Method: http.MethodPost, Form: form, Strict: true}
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

func (r Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r Response) Text() string {
	return string(r.Body)
}

func (r Response) JSON(out any) error {
	return json.Unmarshal(r.Body, out)
}
