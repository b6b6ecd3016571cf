package matchers

import (
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// AllOf requires that the input value passes all of the specified Matchers. If it fails,
// the failure message describes all of the Matchers that failed.
func AllOf(matchers ...Matcher) Matcher {
	return New(
		func(value ldvalue.Value) bool {
			for _, m := range matchers {
				if !m.test(value) {
					return false
				}
			}
			return true
		},
		func(value ldvalue.Value) string {
			var fails []Matcher
			for _, m := range matchers {
				if !m.test(value) {
					fails = append(fails, m)
				}
			}
			return describeMatchersList(fails, value, " and ")
		},
	)
}

func describeMatchersList(matchers []Matcher, value ldvalue.Value, separator string) string {
	if len(matchers) == 1 {
		return matchers[0].describeFailure(value)
	}
	parts := make([]string, 0, len(matchers))
	for _, m := range matchers {
		parts = append(parts, "("+m.describeFailure(value)+")")
	}
	return strings.Join(parts, separator)
}
