package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/framework/helpers"
	"github.com/sak85/API-Automation-POC/framework/matchers"
)

// AssertionFailure is a single failed condition, such as an unexpected status code.
type AssertionFailure struct {
	Check   Check
	Message string
}

func (f *AssertionFailure) Error() string { return f.Message }

// Assertf creates an *AssertionFailure for a condition checked outside of this package, such as
// the state of a page element.
func Assertf(check Check, format string, args ...interface{}) error {
	return failf(check, format, args...)
}

func failf(check Check, format string, args ...interface{}) *AssertionFailure {
	return &AssertionFailure{Check: check, Message: fmt.Sprintf(format, args...)}
}

// ValidateStatusCode passes if actual is any of the expected codes.
func ValidateStatusCode(actual int, expected ...int) error {
	for _, e := range expected {
		if actual == e {
			return nil
		}
	}
	codes := make([]string, 0, len(expected))
	for _, e := range expected {
		codes = append(codes, strconv.Itoa(e))
	}
	return failf(CheckStatus, "Expected status code %s, got %d", strings.Join(codes, " or "), actual)
}

// ValidateResponseTime passes if actual does not exceed limit.
func ValidateResponseTime(actual, limit time.Duration) error {
	if actual > limit {
		return failf(CheckLatency, "Response time %dms exceeded maximum allowed time %dms",
			actual.Milliseconds(), limit.Milliseconds())
	}
	return nil
}

// ValidateEqual compares the value at a field path with an expected value. An empty field
// compares the whole body. For objects and arrays the message includes a line diff.
func ValidateEqual(field string, expected, body ldvalue.Value) error {
	actual, _ := helpers.ValueAtPath(body, field)
	if actual.Equal(expected) {
		return nil
	}
	name := field
	if name == "" {
		name = "response body"
	} else {
		name = "Field '" + field + "'"
	}
	message := fmt.Sprintf("%s expected %s, got %s", name,
		helpers.CanonicalizedJSONString(expected), helpers.CanonicalizedJSONString(actual))
	if isContainer(expected) && isContainer(actual) {
		message += "\ndiff (-expected +actual):\n" +
			matchers.DiffLines(helpers.IndentedJSONString(expected), helpers.IndentedJSONString(actual))
	}
	return failf(CheckEqual, "%s", message)
}

// ValidateSubset passes if every property of the expected object has an equal value in the
// actual object. Nested objects are compared the same way, so the actual value may carry extra
// properties such as a server-assigned id at any level.
func ValidateSubset(expected, actual ldvalue.Value) error {
	var violations []Violation
	collectSubsetViolations("", expected, actual, &violations)
	if len(violations) == 0 {
		return nil
	}
	return &ValidationFailure{Violations: violations}
}

func collectSubsetViolations(prefix string, expected, actual ldvalue.Value, out *[]Violation) {
	if expected.Type() != ldvalue.ObjectType {
		if !actual.Equal(expected) {
			*out = append(*out, Violation{
				Field: prefix,
				Check: CheckEqual,
				Message: fmt.Sprintf("Field '%s' expected %s, got %s", prefix,
					helpers.CanonicalizedJSONString(expected), helpers.CanonicalizedJSONString(actual)),
			})
		}
		return
	}
	keys := expected.Keys(nil)
	sort.Strings(keys)
	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		collectSubsetViolations(path, expected.GetByKey(k), actual.GetByKey(k), out)
	}
}

// Expect applies a Matcher and converts a mismatch into an *AssertionFailure.
func Expect(check Check, value ldvalue.Value, m matchers.Matcher) error {
	if pass, desc := m.Test(value); !pass {
		return failf(check, "%s", desc)
	}
	return nil
}

func isContainer(v ldvalue.Value) bool {
	return v.Type() == ldvalue.ObjectType || v.Type() == ldvalue.ArrayType
}
