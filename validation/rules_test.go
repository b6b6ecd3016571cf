package validation

import (
	"regexp"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak85/API-Automation-POC/framework/opt"
)

func parse(s string) ldvalue.Value { return ldvalue.Parse([]byte(s)) }

func requireViolations(t *testing.T, err error) []Violation {
	t.Helper()
	var vf *ValidationFailure
	require.ErrorAs(t, err, &vf)
	return vf.Violations
}

var idAndNameRules = []Rule{ //nolint:gochecknoglobals
	{Field: "id", Required: true},
	{Field: "name", Type: TypeString, MinLength: opt.Some(3)},
}

func TestValidateReportsEveryViolation(t *testing.T) {
	violations := requireViolations(t, Validate(parse(`{"name":"ab"}`), idAndNameRules))
	assert.Equal(t, []Violation{
		{Field: "id", Check: CheckRequired, Message: "Field 'id' is required but missing"},
		{Field: "name", Check: CheckMinLength, Message: "Field 'name' should have minimum length 3, got 2"},
	}, violations)
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(parse(`{"id":1,"name":"abcdef"}`), idAndNameRules))
}

func TestValidateTreatsNullAsAbsent(t *testing.T) {
	rules := []Rule{
		{Field: "email", Required: true},
		{Field: "phone", Type: TypeString, MinLength: opt.Some(5)},
	}
	violations := requireViolations(t, Validate(parse(`{"email":null,"phone":null}`), rules))
	require.Len(t, violations, 1)
	assert.Equal(t, CheckRequired, violations[0].Check)
}

func TestValidateAbsentOptionalFieldSkipsOtherChecks(t *testing.T) {
	rules := []Rule{{Field: "website", Type: TypeString, Pattern: regexp.MustCompile(`^x`),
		Custom: func(ldvalue.Value) bool { return false }}}
	assert.NoError(t, Validate(parse(`{}`), rules))
}

func TestValidateNestedAndIndexedPaths(t *testing.T) {
	body := parse(`{"address":{"geo":{"lat":"-37.3159"}},"tags":[{"name":"x"}]}`)
	rules := []Rule{
		{Field: "address.geo.lat", Required: true, Type: TypeString},
		{Field: "tags.0.name", Required: true},
		{Field: "tags.1.name", Required: true},
		{Field: "address.street.name", Required: true},
	}
	violations := requireViolations(t, Validate(body, rules))
	require.Len(t, violations, 2)
	assert.Equal(t, "tags.1.name", violations[0].Field)
	assert.Equal(t, "address.street.name", violations[1].Field)
}

func TestValidateCheckOrderWithinRule(t *testing.T) {
	rule := Rule{
		Field:     "code",
		Type:      TypeString,
		MinLength: opt.Some(5),
		MaxLength: opt.Some(1),
		Pattern:   regexp.MustCompile(`^[0-9]+$`),
		Custom:    func(v ldvalue.Value) bool { return v.StringValue() == "zzz" },
	}
	violations := requireViolations(t, Validate(parse(`{"code":"ab"}`), []Rule{rule}))
	var checks []Check
	for _, v := range violations {
		checks = append(checks, v.Check)
	}
	assert.Equal(t, []Check{CheckMinLength, CheckMaxLength, CheckPattern, CheckCustom}, checks)
}

func TestValidateLengthAndPatternOnlyApplyToStrings(t *testing.T) {
	rule := Rule{Field: "n", Type: TypeString, MinLength: opt.Some(3), Pattern: regexp.MustCompile(`x`)}
	violations := requireViolations(t, Validate(parse(`{"n":12}`), []Rule{rule}))
	assert.Equal(t, []Violation{
		{Field: "n", Check: CheckType, Message: "Field 'n' should be of type string, got number"},
	}, violations)
}

func TestValueTypes(t *testing.T) {
	for _, p := range []struct {
		valueType ValueType
		json      string
	}{
		{TypeString, `"a"`},
		{TypeNumber, `1.5`},
		{TypeBoolean, `false`},
		{TypeArray, `[]`},
		{TypeObject, `{}`},
	} {
		t.Run(string(p.valueType), func(t *testing.T) {
			value := parse(p.json)
			assert.True(t, p.valueType.Matches(value))
			assert.Equal(t, string(p.valueType), TypeOf(value))
			assert.True(t, TypeAny.Matches(value))
		})
	}
	assert.False(t, TypeObject.Matches(parse(`[]`)))
	assert.False(t, TypeNumber.Matches(parse(`"1"`)))
}

func TestParseValueType(t *testing.T) {
	v, err := ParseValueType("Boolean")
	require.NoError(t, err)
	assert.Equal(t, TypeBoolean, v)
	v, err = ParseValueType("bool")
	require.NoError(t, err)
	assert.Equal(t, TypeBoolean, v)
	v, err = ParseValueType("any")
	require.NoError(t, err)
	assert.Equal(t, TypeAny, v)
	_, err = ParseValueType("integer")
	assert.Error(t, err)
}

func TestValidateEach(t *testing.T) {
	body := parse(`[{"id":1,"email":"a@b.c"},{"id":2}]`)
	violations := requireViolations(t, ValidateEach(body, RequiredFields("id", "email")))
	require.Len(t, violations, 1)
	assert.Equal(t, "1.email", violations[0].Field)

	violations = requireViolations(t, ValidateEach(parse(`{}`), RequiredFields("id")))
	assert.Equal(t, "Response body should be of type array, got object", violations[0].Message)
}

func TestValidationFailureMessage(t *testing.T) {
	err := Validate(parse(`{"name":"ab"}`), idAndNameRules)
	assert.EqualError(t, err, "Validation failed:\nField 'id' is required but missing\n"+
		"Field 'name' should have minimum length 3, got 2")
}
