package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// RequestFailure is the error for one failed attempt. StatusCode is zero when no response was
// received, in which case Err holds the transport or timeout error.
type RequestFailure struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
	Headers    http.Header
	// Request is the spec the failed attempt was made for.
	Request RequestSpec
	Err     error
}

func (e *RequestFailure) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d %s", e.Method, e.URL, e.StatusCode, e.Status)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Method, e.URL, e.Err)
}

func (e *RequestFailure) Unwrap() error { return e.Err }

// Response describes the rejected response as a Response, or returns nil if no response was
// received.
func (e *RequestFailure) Response() *Response {
	if e.StatusCode == 0 {
		return nil
	}
	return &Response{
		Data:       parseBody(e.Body),
		RawBody:    e.Body,
		StatusCode: e.StatusCode,
		StatusText: e.Status,
		Headers:    e.Headers,
		Request:    e.Request,
	}
}

// IsClientError is true for a 4xx response.
func (e *RequestFailure) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsTimeout is true if the attempt exceeded its timeout.
func (e *RequestFailure) IsTimeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
