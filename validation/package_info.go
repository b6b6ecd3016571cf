// Package validation checks API responses. Validate evaluates a batch of declarative Rules
// against a JSON body and reports every violation at once. The single-condition checks such as
// ValidateStatusCode stop at the first mismatch and return an *AssertionFailure.
package validation
