package matchers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sak85/API-Automation-POC/framework/helpers"
)

// Equal is a matcher that tests whether the input value is deeply equal to the expected JSON
// value. For objects and arrays the failure message includes a line diff.
func Equal(expectedValue ldvalue.Value) Matcher {
	return New(
		func(value ldvalue.Value) bool {
			return value.Equal(expectedValue)
		},
		func(value ldvalue.Value) string {
			desc := fmt.Sprintf("equal to %s", DescribeValue(expectedValue))
			if isContainer(value) && isContainer(expectedValue) {
				desc += "\ndiff (-expected +actual):\n" +
					DiffLines(helpers.IndentedJSONString(expectedValue), helpers.IndentedJSONString(value))
			}
			return desc
		},
	)
}

// EqualString is a shortcut for Equal(ldvalue.String(s)).
func EqualString(s string) Matcher { return Equal(ldvalue.String(s)) }

// OfType tests the JSON type of the value.
func OfType(valueType ldvalue.ValueType) Matcher {
	return New(
		func(value ldvalue.Value) bool { return value.Type() == valueType },
		func(value ldvalue.Value) string {
			return fmt.Sprintf("of type %s (was %s)", valueType, value.Type())
		},
	)
}

// NotNull tests that the value is present.
func NotNull() Matcher {
	return New(
		func(value ldvalue.Value) bool { return !value.IsNull() },
		func(ldvalue.Value) string { return "not null" },
	)
}

// StringContaining tests that the value is a string containing the given substring.
func StringContaining(substring string) Matcher {
	return New(
		func(value ldvalue.Value) bool {
			return value.IsString() && strings.Contains(value.StringValue(), substring)
		},
		func(ldvalue.Value) string { return fmt.Sprintf("a string containing %q", substring) },
	)
}

// StringMatching tests that the value is a string matching a regular expression.
func StringMatching(pattern *regexp.Regexp) Matcher {
	return New(
		func(value ldvalue.Value) bool {
			return value.IsString() && pattern.MatchString(value.StringValue())
		},
		func(ldvalue.Value) string { return fmt.Sprintf("a string matching /%s/", pattern) },
	)
}

// DiffLines produces a line-oriented diff of two texts, prefixing removed lines with "-",
// added lines with "+", and unchanged lines with a space.
func DiffLines(expected, actual string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	var out strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix + strings.TrimSuffix(line, "\n") + "\n")
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func isContainer(v ldvalue.Value) bool {
	return v.Type() == ldvalue.ObjectType || v.Type() == ldvalue.ArrayType
}
