package mockapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/helpers"
)

// Somewhat arbitrary buffer size for the channel that we use as a queue for incoming request
// information. If the channel is full, the HTTP request handler will not block; the request is
// still kept in the history.
const incomingRequestChannelBufferSize = 100

// RecordedRequest contains information about an HTTP request received by the server.
type RecordedRequest struct {
	Method   string
	URL      url.URL
	Headers  http.Header
	Body     []byte
	Status   int
	Received time.Time
}

type requestRecorder struct {
	history     []RecordedRequest
	newRequests chan RecordedRequest
	logger      framework.Logger
	lock        sync.Mutex
}

func newRequestRecorder(logger framework.Logger) *requestRecorder {
	return &requestRecorder{
		newRequests: make(chan RecordedRequest, incomingRequestChannelBufferSize),
		logger:      logger,
	}
}

// middleware records each request after it has been handled, and logs requests for unknown paths
// or unsupported methods.
func (r *requestRecorder) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body []byte
		if req.Body != nil {
			data, err := io.ReadAll(req.Body)
			_ = req.Body.Close()
			if err != nil {
				r.logger.Printf("Unexpected error trying to read request body: %s", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			body = data
			req.Body = io.NopCloser(bytes.NewBuffer(body))
		}
		received := time.Now()

		wrappedWriter := wrappedResponseWriter{w: w, status: http.StatusOK}
		next.ServeHTTP(&wrappedWriter, req)

		switch wrappedWriter.status {
		case http.StatusNotFound:
			r.logger.Printf("Received %s request for unrecognized path %s", req.Method, req.URL.Path)
		case http.StatusMethodNotAllowed:
			r.logger.Printf("Received request with unsupported %s method for path %s", req.Method, req.URL.Path)
		}

		info := RecordedRequest{
			Method:   req.Method,
			URL:      *req.URL,
			Headers:  req.Header.Clone(),
			Body:     body,
			Status:   wrappedWriter.status,
			Received: received,
		}
		r.lock.Lock()
		r.history = append(r.history, info)
		r.lock.Unlock()
		if !helpers.NonBlockingSend(r.newRequests, info) {
			r.logger.Printf("Incoming request channel was full for %s", req.URL)
		}
	})
}

func (r *requestRecorder) requests() []RecordedRequest {
	r.lock.Lock()
	defer r.lock.Unlock()
	return helpers.CopyOf(r.history)
}

func (r *requestRecorder) reset() {
	r.lock.Lock()
	r.history = nil
	r.lock.Unlock()
	for {
		select {
		case <-r.newRequests:
		default:
			return
		}
	}
}

func (r *requestRecorder) await(timeout time.Duration) (RecordedRequest, error) {
	maybeReq := helpers.TryReceive(r.newRequests, timeout)
	if maybeReq.IsDefined() {
		return maybeReq.Value(), nil
	}
	return RecordedRequest{}, fmt.Errorf("timed out after %s waiting for an incoming request", timeout)
}

// wrappedResponseWriter is a way for us to monitor the status that is written to a ResponseWriter.
// It passes through Flush so that event streams still work.
type wrappedResponseWriter struct {
	w           http.ResponseWriter
	status      int
	wroteHeader bool
}

func (ww *wrappedResponseWriter) Header() http.Header { return ww.w.Header() }

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	if !ww.wroteHeader {
		ww.status = status
		ww.wroteHeader = true
	}
	ww.w.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(data []byte) (int, error) {
	ww.wroteHeader = true
	return ww.w.Write(data)
}

func (ww *wrappedResponseWriter) Flush() {
	if f, ok := ww.w.(http.Flusher); ok {
		f.Flush()
	}
}

// CloseNotify is required by the eventsource server, which uses it to detect disconnected clients.
func (ww *wrappedResponseWriter) CloseNotify() <-chan bool {
	if cn, ok := ww.w.(http.CloseNotifier); ok { //nolint:staticcheck
		return cn.CloseNotify()
	}
	return make(chan bool)
}
