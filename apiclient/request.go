package apiclient

import (
	"net/http"
	"net/url"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/framework/opt"
)

// HTTP methods accepted by Execute.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodPatch  = http.MethodPatch
	MethodDelete = http.MethodDelete
)

var supportedMethods = []string{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete} //nolint:gochecknoglobals

// RequestSpec describes one logical request. It is passed by value and the Client never
// modifies it, so the same spec can be retried or recorded in a Response.
type RequestSpec struct {
	Method  string
	URL     string
	Headers http.Header
	Query   url.Values
	// Body is JSON-encoded when it is not null.
	Body    ldvalue.Value
	Timeout opt.Maybe[time.Duration]
}

// Response is the result of a successful attempt.
type Response struct {
	// Data is the parsed JSON body. A body that is not valid JSON is kept as a string value, and
	// an empty body is null.
	Data       ldvalue.Value
	RawBody    []byte
	StatusCode int
	StatusText string
	Headers    http.Header
	Request    RequestSpec
	Elapsed    time.Duration
}

// Header returns the first value of a response header, or "".
func (r *Response) Header(name string) string {
	return r.Headers.Get(name)
}

func parseBody(body []byte) ldvalue.Value {
	if len(body) == 0 {
		return ldvalue.Null()
	}
	var v ldvalue.Value
	if err := v.UnmarshalJSON(body); err != nil {
		return ldvalue.String(string(body))
	}
	return v
}
