package scenario

import (
	"fmt"
	"regexp"
	"strings"
)

// RegexFilters selects scenarios by name. Each pattern is a list of regexes separated by "/",
// matched against the feature name and then the scenario name.
type RegexFilters struct {
	MustMatch    IDPatternList
	MustNotMatch IDPatternList
}

func (r RegexFilters) Match(id ID) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(id)) &&
		!r.MustNotMatch.AnyMatch(id)
}

func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

// Describe returns a human-readable summary of the filters, or "" if there are none.
func (r RegexFilters) Describe() string {
	var parts []string
	if r.MustMatch.IsDefined() {
		parts = append(parts, fmt.Sprintf("skip any not matching %s", r.MustMatch))
	}
	if r.MustNotMatch.IsDefined() {
		parts = append(parts, fmt.Sprintf("skip any matching %s", r.MustNotMatch))
	}
	return strings.Join(parts, "; ")
}

type IDPattern []*regexp.Regexp

// Match tests the pattern against the leading components of an ID. A single-component pattern
// that does not match the feature name is also tried against the scenario name, so that "-run login"
// selects scenarios by name without naming their feature.
func (p IDPattern) Match(id ID) bool {
	if len(p) > len(id) {
		return false
	}
	if p.matchFrom(id, 0) {
		return true
	}
	return len(p) == 1 && len(id) > 1 && p[0].MatchString(id.Name())
}

func (p IDPattern) matchFrom(id ID, offset int) bool {
	for i := range p {
		if !p[i].MatchString(id[offset+i]) {
			return false
		}
	}
	return true
}

func (p IDPattern) String() string {
	ss := make([]string, 0, len(p))
	for _, c := range p {
		ss = append(ss, c.String())
	}
	return strings.Join(ss, "/")
}

func ParseIDPattern(s string) (IDPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(IDPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

type IDPatternList []IDPattern

func (l IDPatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (l *IDPatternList) Set(value string) error {
	p, err := ParseIDPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l IDPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l IDPatternList) AnyMatch(id ID) bool {
	for _, p := range l {
		if p.Match(id) {
			return true
		}
	}
	return false
}
