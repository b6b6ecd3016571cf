// Package apiclient is the HTTP layer used by API scenarios. A Client resolves request URLs
// against a base URL, applies default headers, and retries failed attempts with exponential
// backoff. Every attempt is logged and can be observed for metrics.
//
// A non-2xx status is treated as a failed attempt, the same as a network error or a timeout.
// When all attempts fail, Execute returns the error from the last attempt unchanged.
package apiclient
