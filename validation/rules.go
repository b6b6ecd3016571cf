package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/framework/helpers"
	"github.com/sak85/API-Automation-POC/framework/opt"
)

// ValueType is the JSON type a Rule expects. The empty ValueType accepts anything.
type ValueType string

const (
	TypeAny     ValueType = ""
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeArray   ValueType = "array"
	TypeObject  ValueType = "object"
)

// ParseValueType accepts the type names used in feature files.
func ParseValueType(s string) (ValueType, error) {
	switch t := ValueType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeAny, TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject:
		return t, nil
	case "bool":
		return TypeBoolean, nil
	case "any":
		return TypeAny, nil
	default:
		return TypeAny, fmt.Errorf("unknown value type %q", s)
	}
}

// Matches reports whether a present value has this type.
func (t ValueType) Matches(value ldvalue.Value) bool {
	switch t {
	case TypeString:
		return value.Type() == ldvalue.StringType
	case TypeNumber:
		return value.Type() == ldvalue.NumberType
	case TypeBoolean:
		return value.Type() == ldvalue.BoolType
	case TypeArray:
		return value.Type() == ldvalue.ArrayType
	case TypeObject:
		return value.Type() == ldvalue.ObjectType
	default:
		return true
	}
}

// TypeOf names the JSON type of a value using the same vocabulary as ValueType.
func TypeOf(value ldvalue.Value) string {
	switch value.Type() {
	case ldvalue.BoolType:
		return string(TypeBoolean)
	case ldvalue.NumberType:
		return string(TypeNumber)
	case ldvalue.StringType:
		return string(TypeString)
	case ldvalue.ArrayType:
		return string(TypeArray)
	case ldvalue.ObjectType:
		return string(TypeObject)
	default:
		return "null"
	}
}

// Rule is one declarative check on a field of a response body.
type Rule struct {
	// Field is a dot-separated path; numeric segments index arrays.
	Field     string
	Required  bool
	Type      ValueType
	MinLength opt.Maybe[int]
	MaxLength opt.Maybe[int]
	Pattern   *regexp.Regexp
	Custom    func(ldvalue.Value) bool
}

// Check identifies which part of a Rule a Violation came from.
type Check string

const (
	CheckRequired  Check = "required"
	CheckType      Check = "type"
	CheckMinLength Check = "minLength"
	CheckMaxLength Check = "maxLength"
	CheckPattern   Check = "pattern"
	CheckCustom    Check = "custom"
	CheckSchema    Check = "schema"
	CheckEqual     Check = "equal"
	CheckStatus    Check = "status"
	CheckLatency   Check = "responseTime"
	CheckUI        Check = "ui"
)

// Violation is one failed check.
type Violation struct {
	Field   string
	Check   Check
	Message string
}

// ValidationFailure carries every violation found by one call to Validate.
type ValidationFailure struct {
	Violations []Violation
}

func (f *ValidationFailure) Error() string {
	messages := make([]string, 0, len(f.Violations))
	for _, v := range f.Violations {
		messages = append(messages, v.Message)
	}
	return "Validation failed:\n" + strings.Join(messages, "\n")
}

// Validate applies all rules to body. It returns nil if every rule passes, or a
// *ValidationFailure listing all violations in rule order.
//
// For each rule the checks run in order: required, type, then length and pattern (which only
// apply to strings), then the custom predicate. A missing field, or one whose value is null, is
// absent: it violates Required and skips the remaining checks.
func Validate(body ldvalue.Value, rules []Rule) error {
	var violations []Violation
	for _, rule := range rules {
		violations = append(violations, checkRule(body, rule)...)
	}
	if len(violations) == 0 {
		return nil
	}
	return &ValidationFailure{Violations: violations}
}

func checkRule(body ldvalue.Value, rule Rule) []Violation {
	var violations []Violation
	add := func(check Check, format string, args ...interface{}) {
		violations = append(violations, Violation{
			Field:   rule.Field,
			Check:   check,
			Message: fmt.Sprintf("Field '%s' ", rule.Field) + fmt.Sprintf(format, args...),
		})
	}

	value, present := helpers.ValueAtPath(body, rule.Field)
	if !present {
		if rule.Required {
			add(CheckRequired, "is required but missing")
		}
		return violations
	}

	if !rule.Type.Matches(value) {
		add(CheckType, "should be of type %s, got %s", rule.Type, TypeOf(value))
	}

	if value.IsString() {
		length := len([]rune(value.StringValue()))
		if minLen, ok := rule.MinLength.Get(); ok && length < minLen {
			add(CheckMinLength, "should have minimum length %d, got %d", minLen, length)
		}
		if maxLen, ok := rule.MaxLength.Get(); ok && length > maxLen {
			add(CheckMaxLength, "should have maximum length %d, got %d", maxLen, length)
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(value.StringValue()) {
			add(CheckPattern, "does not match required pattern /%s/", rule.Pattern)
		}
	}

	if rule.Custom != nil && !rule.Custom(value) {
		add(CheckCustom, "failed custom validation")
	}
	return violations
}

// RequiredFields is a shortcut for a batch of Required rules.
func RequiredFields(fields ...string) []Rule {
	rules := make([]Rule, 0, len(fields))
	for _, f := range fields {
		rules = append(rules, Rule{Field: f, Required: true})
	}
	return rules
}

// ValidateEach applies the rules to every item of an array body. Violation fields are prefixed
// with the item index, as in "3.email".
func ValidateEach(body ldvalue.Value, rules []Rule) error {
	if body.Type() != ldvalue.ArrayType {
		return &ValidationFailure{Violations: []Violation{{
			Check:   CheckType,
			Message: fmt.Sprintf("Response body should be of type array, got %s", TypeOf(body)),
		}}}
	}
	var violations []Violation
	for i := 0; i < body.Count(); i++ {
		prefixed := make([]Rule, 0, len(rules))
		for _, r := range rules {
			r.Field = fmt.Sprintf("%d.%s", i, r.Field)
			prefixed = append(prefixed, r)
		}
		if err := Validate(body, prefixed); err != nil {
			violations = append(violations, err.(*ValidationFailure).Violations...) //nolint:errorlint
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &ValidationFailure{Violations: violations}
}
