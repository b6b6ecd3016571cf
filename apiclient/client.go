package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/time/rate"

	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/helpers"
)

// DefaultTimeout applies to each attempt when neither the client nor the request sets one.
const DefaultTimeout = 30 * time.Second

// Attempt describes one try of a request, as reported to an AttemptObserver.
type Attempt struct {
	Method     string
	URL        string
	Number     int
	StatusCode int
	Elapsed    time.Duration
	Err        error
}

// AttemptObserver receives every attempt, successful or not.
type AttemptObserver interface {
	ObserveAttempt(Attempt)
}

// Client executes RequestSpecs with retries. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retry      RetryPolicy
	limiter    *rate.Limiter
	headers    http.Header
	logger     *framework.LevelLogger
	observer   AttemptObserver
	sleep      func(context.Context, time.Duration) error
}

// Option configures a Client in New.
type Option = helpers.ConfigOptionFunc[Client]

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive (was %s)", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) error {
		c.retry = policy
		return nil
	}
}

// WithRateLimit limits outgoing attempts to the given number per second. Zero disables it.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) error {
		if perSecond < 0 {
			return fmt.Errorf("rate limit cannot be negative (was %v)", perSecond)
		}
		if perSecond == 0 {
			c.limiter = nil
			return nil
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithLogger sets the logger that receives one line per attempt.
func WithLogger(logger *framework.LevelLogger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithObserver registers an AttemptObserver, such as the metrics recorder.
func WithObserver(observer AttemptObserver) Option {
	return func(c *Client) error {
		c.observer = observer
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = httpClient
		return nil
	}
}

// WithHeader adds a header that is sent with every request unless the request overrides it.
func WithHeader(name, value string) Option {
	return func(c *Client) error {
		c.headers.Set(name, value)
		return nil
	}
}

// WithSleeper replaces the function used to wait between attempts. Tests use this to record
// backoff delays without waiting.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) error {
		c.sleep = sleep
		return nil
	}
}

// New creates a Client. Relative request URLs are resolved against baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		retry:      DefaultRetryPolicy(),
		headers: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
		sleep: sleepContext,
	}
	if err := helpers.ApplyOptions(c, options...); err != nil {
		return nil, err
	}
	if c.logger == nil {
		c.logger = framework.NewLevelLogger(io.Discard, framework.LevelError)
	}
	return c, nil
}

// BaseURL returns the URL that relative request paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithBaseURL returns a copy of the client that resolves relative URLs against baseURL.
func (c *Client) WithBaseURL(baseURL string) *Client {
	clone := *c
	clone.baseURL = baseURL
	clone.headers = c.headers.Clone()
	return &clone
}

// ExpectingStatus returns a copy of the client that does not retry a response with the given
// status, for requests where that status is the expected outcome.
func (c *Client) ExpectingStatus(status int) *Client {
	clone := *c
	clone.headers = c.headers.Clone()
	clone.retry.Retryable = func(err error) bool {
		var rf *RequestFailure
		if errors.As(err, &rf) && rf.StatusCode == status {
			return false
		}
		return c.retry.retryable(err)
	}
	return &clone
}

// Get sends a GET request with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Execute(ctx, RequestSpec{Method: MethodGet, URL: path, Query: query})
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body ldvalue.Value) (*Response, error) {
	return c.Execute(ctx, RequestSpec{Method: MethodPost, URL: path, Body: body})
}

// Put sends body as JSON.
func (c *Client) Put(ctx context.Context, path string, body ldvalue.Value) (*Response, error) {
	return c.Execute(ctx, RequestSpec{Method: MethodPut, URL: path, Body: body})
}

// Patch sends body as JSON.
func (c *Client) Patch(ctx context.Context, path string, body ldvalue.Value) (*Response, error) {
	return c.Execute(ctx, RequestSpec{Method: MethodPatch, URL: path, Body: body})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Execute(ctx, RequestSpec{Method: MethodDelete, URL: path})
}

// Execute sends the request, repeating it according to the retry policy. If every attempt
// fails, the error from the last attempt is returned as is. If ctx is cancelled while waiting
// between attempts, the context's error is returned.
func (c *Client) Execute(ctx context.Context, spec RequestSpec) (*Response, error) {
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = MethodGet
	}
	if !helpers.SliceContains(method, supportedMethods) {
		return nil, &RequestFailure{Method: method, URL: spec.URL, Request: spec,
			Err: fmt.Errorf("unsupported method %q", spec.Method)}
	}
	target, err := c.ResolveURL(spec.URL, spec.Query)
	if err != nil {
		return nil, &RequestFailure{Method: method, URL: spec.URL, Request: spec, Err: err}
	}

	maxAttempts := c.retry.attempts()
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.try(ctx, method, target, spec, attempt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		c.logger.Warnf("Attempt %d of %d failed: %s", attempt, maxAttempts, err)

		if attempt == maxAttempts || !c.retry.retryable(err) {
			break
		}
		delay := c.retry.delay(attempt)
		c.logger.Infof("Retrying in %dms...", delay.Milliseconds())
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) try(ctx context.Context, method, target string, spec RequestSpec, attempt int) (*Response, error) {
	record := func(statusCode int, elapsed time.Duration, err error) error {
		c.logger.LogAPICall(method, target, statusCode, elapsed)
		if c.observer != nil {
			c.observer.ObserveAttempt(Attempt{Method: method, URL: target, Number: attempt,
				StatusCode: statusCode, Elapsed: elapsed, Err: err})
		}
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, record(0, 0, &RequestFailure{Method: method, URL: target, Request: spec, Err: fmt.Errorf("rate limit wait: %w", err)})
		}
	}

	timeout := spec.Timeout.OrElse(c.timeout)
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(attemptCtx, method, target, spec)
	if err != nil {
		return nil, record(0, 0, &RequestFailure{Method: method, URL: target, Request: spec, Err: err})
	}

	c.logger.Debugf("Making %s request to %s", method, target)
	started := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, record(0, time.Since(started), &RequestFailure{Method: method, URL: target, Request: spec, Err: err})
	}
	body, err := io.ReadAll(httpResp.Body)
	_ = httpResp.Body.Close()
	elapsed := time.Since(started)
	if err != nil {
		return nil, record(0, elapsed, &RequestFailure{Method: method, URL: target, Request: spec, Err: err})
	}

	statusText := statusTextOf(httpResp)
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, record(httpResp.StatusCode, elapsed, &RequestFailure{
			Method:     method,
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Status:     statusText,
			Body:       body,
			Headers:    httpResp.Header,
			Request:    spec,
		})
	}

	_ = record(httpResp.StatusCode, elapsed, nil)
	return &Response{
		Data:       parseBody(body),
		RawBody:    body,
		StatusCode: httpResp.StatusCode,
		StatusText: statusText,
		Headers:    httpResp.Header,
		Request:    spec,
		Elapsed:    elapsed,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, spec RequestSpec) (*http.Request, error) {
	var bodyReader io.Reader
	if !spec.Body.IsNull() {
		bodyReader = bytes.NewBufferString(spec.Body.JSONString())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	for name, values := range c.headers {
		req.Header[name] = append([]string(nil), values...)
	}
	for name, values := range spec.Headers {
		req.Header.Del(name)
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	return req, nil
}

// ResolveURL joins a relative path onto the base URL and adds query parameters. An absolute
// URL is used as is.
func (c *Client) ResolveURL(path string, query url.Values) (string, error) {
	target := path
	parsed, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	if !parsed.IsAbs() {
		if c.baseURL == "" {
			return "", fmt.Errorf("relative URL %q with no base URL", path)
		}
		target = strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for name, values := range query {
		for _, v := range values {
			q.Add(name, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func statusTextOf(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
