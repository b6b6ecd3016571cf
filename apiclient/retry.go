package apiclient

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// DefaultAttempts is the total number of attempts, including the first, when no policy is given.
const DefaultAttempts = 3

// RetryPolicy controls how Execute repeats failed attempts.
type RetryPolicy struct {
	// Attempts is the total number of attempts. Values below 1 mean a single attempt.
	Attempts int
	// Backoff returns the delay after the given failed attempt, numbered from 1.
	Backoff func(attempt int) time.Duration
	// Retryable decides whether a failed attempt may be repeated.
	Retryable func(err error) bool
}

// DefaultRetryPolicy retries every failure up to DefaultAttempts times with DefaultBackoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts, Backoff: DefaultBackoff, Retryable: RetryAll}
}

// DefaultBackoff waits 2^attempt seconds: 2s after the first failure, 4s after the second.
func DefaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// RetryAll treats every failure as retryable.
func RetryAll(error) bool { return true }

// SkipClientErrors stops retrying on 4xx responses, which are unlikely to change on a repeat.
// 408 and 429 remain retryable.
func SkipClientErrors(err error) bool {
	var rf *RequestFailure
	if errors.As(err, &rf) && rf.IsClientError() {
		return rf.StatusCode == http.StatusRequestTimeout || rf.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return DefaultBackoff(attempt)
	}
	return p.Backoff(attempt)
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
