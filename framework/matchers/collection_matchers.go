package matchers

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Length tests the number of items in an array, properties in an object, or characters in a string.
func Length(n int) Matcher {
	return New(
		func(value ldvalue.Value) bool { return lengthOf(value) == n },
		func(value ldvalue.Value) string {
			return fmt.Sprintf("length %d (was %d)", n, lengthOf(value))
		},
	)
}

// NonEmptyArray tests that the value is an array with at least one item.
func NonEmptyArray() Matcher {
	return New(
		func(value ldvalue.Value) bool { return value.Type() == ldvalue.ArrayType && value.Count() > 0 },
		func(ldvalue.Value) string { return "a non-empty array" },
	)
}

func lengthOf(value ldvalue.Value) int {
	switch value.Type() {
	case ldvalue.StringType:
		return len([]rune(value.StringValue()))
	case ldvalue.ArrayType, ldvalue.ObjectType:
		return value.Count()
	default:
		return 0
	}
}
