// Package matchers provides a flexible assertion API for JSON data, similar to Java's Hamcrest.
// Matchers are constructed separately from the values being tested, and can then be applied to
// any response body or test data value, or combined with AllOf. Every matcher
// describes itself on failure, so step definitions never need to hand-write failure messages.
package matchers

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak85/API-Automation-POC/framework/helpers"
)

// TestFunc is a function used in defining a new Matcher. It returns true if the value passes
// the test or false for failure.
type TestFunc func(value ldvalue.Value) bool

// DescribeFailureFunc is a function used in defining a new Matcher. Given the value that was
// tested, and assuming that the test failed, it returns a descriptive string such as "equal to 3".
// A description of the actual value is always appended automatically.
type DescribeFailureFunc func(value ldvalue.Value) string

// Matcher is a general mechanism for declaring expectations about a JSON value. Expectations
// can be combined, and they self-describe on failure.
type Matcher struct {
	maybeTest            TestFunc
	maybeDescribeFailure DescribeFailureFunc
}

// New creates a Matcher.
func New(test TestFunc, describeFailure DescribeFailureFunc) Matcher {
	return Matcher{maybeTest: test, maybeDescribeFailure: describeFailure}
}

// Test executes the expectation for a specific value. It returns true if the value passes the
// test or false for failure, plus a string describing the expectation that failed.
func (m Matcher) Test(value ldvalue.Value) (pass bool, failDescription string) {
	if m.test(value) {
		return true, ""
	}
	return false, fmt.Sprintf("expected: %s\nactual value was: %s", m.describeFailure(value), DescribeValue(value))
}

func (m Matcher) test(value ldvalue.Value) bool {
	if m.maybeTest == nil {
		return true
	}
	return m.maybeTest(value)
}

func (m Matcher) describeFailure(value ldvalue.Value) string {
	if m.maybeDescribeFailure == nil {
		return "no test description given"
	}
	return m.maybeDescribeFailure(value)
}

// Assert is for use with the testify/assert package (or any API with a compatible interface). It
// tests a value and, on failure, calls assert.Fail with the appropriate message.
func (m Matcher) Assert(t assert.TestingT, value ldvalue.Value) bool {
	if pass, desc := m.Test(value); !pass {
		assert.Fail(t, desc)
		return false
	}
	return true
}

// Require is for use with the testify/require package (or any API with a compatible interface). It
// tests a value and, on failure, calls require.Fail with the appropriate message.
func (m Matcher) Require(t require.TestingT, value ldvalue.Value) bool {
	if pass, desc := m.Test(value); !pass {
		require.Fail(t, desc)
		return false
	}
	return true
}

// DescribeValue renders a value for failure messages as canonical JSON.
func DescribeValue(value ldvalue.Value) string {
	return helpers.CanonicalizedJSONString(value)
}
