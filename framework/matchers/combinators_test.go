package matchers

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

func TestAllOf(t *testing.T) {
	m1 := StringContaining("A")
	m2 := StringContaining("B")
	assertPasses(t, ldvalue.String("an A and a B"), AllOf(m1, m2))
	assertFails(t, ldvalue.String("a B"), AllOf(m1, m2),
		"expected: a string containing \"A\"\nactual value was: \"a B\"")
	assertFails(t, ldvalue.String("a C"), AllOf(m1, m2),
		"expected: (a string containing \"A\") and (a string containing \"B\")\nactual value was: \"a C\"")
}
