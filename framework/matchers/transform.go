package matchers

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/framework/helpers"
)

// MatcherTransform is a combinator that allows an input value to be transformed to some
// other value before being tested by other Matchers.
//
// For instance, this is how a property inside a response body is tested while still reporting
// the whole body on failure:
//
//	matchers.Field("address.city").Should(matchers.EqualString("Gwenborough")).Assert(t, body)
//
// If the city was really "Wisokyburgh", the failure message would show:
//
//	expected: address.city equal to "Gwenborough"
//	actual value was: {"address":{"city":"Wisokyburgh"},...}
type MatcherTransform struct {
	name     string
	getValue func(ldvalue.Value) ldvalue.Value
}

// Transform creates a MatcherTransform. The name parameter is a brief description of what
// the output value is in relation to the input value; it will be prefixed to the description
// of any Matcher that you use with Should().
func Transform(name string, getValue func(ldvalue.Value) ldvalue.Value) MatcherTransform {
	return MatcherTransform{name: name, getValue: getValue}
}

// Field is a MatcherTransform that selects a dot-separated path within an object or array. A
// missing path produces a JSON null.
func Field(path string) MatcherTransform {
	return Transform(path, func(value ldvalue.Value) ldvalue.Value {
		found, _ := helpers.ValueAtPath(value, path)
		return found
	})
}

// Should applies a Matcher to the transformed value.
func (mt MatcherTransform) Should(matcher Matcher) Matcher {
	if mt.getValue == nil {
		mt.getValue = func(value ldvalue.Value) ldvalue.Value { return value }
	}
	if mt.name == "" {
		mt.name = "[unspecified name - wrong use of matchers.MatcherTransform]"
	}
	return New(
		func(value ldvalue.Value) bool {
			return matcher.test(mt.getValue(value))
		},
		func(value ldvalue.Value) string {
			return mt.name + " " + matcher.describeFailure(mt.getValue(value))
		},
	)
}
