package matchers

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

func TestLength(t *testing.T) {
	assertPasses(t, ldvalue.ArrayOf(ldvalue.Int(1), ldvalue.Int(2)), Length(2))
	assertPasses(t, ldvalue.String("héllo"), Length(5))
	assertFails(t, ldvalue.ArrayOf(), Length(1), "expected: length 1 (was 0)\nactual value was: []")
}

func TestNonEmptyArray(t *testing.T) {
	assertPasses(t, ldvalue.ArrayOf(ldvalue.Null()), NonEmptyArray())
	assertFails(t, ldvalue.ArrayOf(), NonEmptyArray(), "expected: a non-empty array\nactual value was: []")
	assertFails(t, ldvalue.String("x"), NonEmptyArray(), "expected: a non-empty array\nactual value was: \"x\"")
}
