package helpers

import (
	"strconv"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/slices"
)

// CanonicalizedJSONString reformats a JSON value so that object properties are alphabetized,
// so that two equal values always render identically and a textual diff only shows real changes.
func CanonicalizedJSONString(value ldvalue.Value) string {
	switch value.Type() {
	case ldvalue.ArrayType:
		items := make([]string, 0, value.Count())
		for i := 0; i < value.Count(); i++ {
			items = append(items, CanonicalizedJSONString(value.GetByIndex(i)))
		}
		return "[" + strings.Join(items, ",") + "]"
	case ldvalue.ObjectType:
		keys := value.Keys(nil)
		slices.Sort(keys)
		items := make([]string, 0, len(keys))
		for _, k := range keys {
			items = append(items, ldvalue.String(k).JSONString()+":"+CanonicalizedJSONString(value.GetByKey(k)))
		}
		return "{" + strings.Join(items, ",") + "}"
	default:
		return value.JSONString()
	}
}

// IndentedJSONString is like CanonicalizedJSONString but puts each property and array item on
// its own line, which makes line-based diffs readable.
func IndentedJSONString(value ldvalue.Value) string {
	var b strings.Builder
	writeIndented(&b, value, "")
	return b.String()
}

func writeIndented(b *strings.Builder, value ldvalue.Value, indent string) {
	switch value.Type() {
	case ldvalue.ArrayType:
		if value.Count() == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i := 0; i < value.Count(); i++ {
			b.WriteString(indent + "  ")
			writeIndented(b, value.GetByIndex(i), indent+"  ")
			if i < value.Count()-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "]")
	case ldvalue.ObjectType:
		keys := value.Keys(nil)
		if len(keys) == 0 {
			b.WriteString("{}")
			return
		}
		slices.Sort(keys)
		b.WriteString("{\n")
		for i, k := range keys {
			b.WriteString(indent + "  " + ldvalue.String(k).JSONString() + ": ")
			writeIndented(b, value.GetByKey(k), indent+"  ")
			if i < len(keys)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "}")
	default:
		b.WriteString(value.JSONString())
	}
}

// ValueAtPath looks up a dot-separated path such as "address.geo.lat" or "items.0.id" inside a
// JSON value. Numeric segments index arrays. It returns false if any segment is missing, or if
// the value found is a JSON null.
func ValueAtPath(value ldvalue.Value, path string) (ldvalue.Value, bool) {
	if path == "" {
		return value, !value.IsNull()
	}
	current := value
	for _, segment := range strings.Split(path, ".") {
		switch current.Type() {
		case ldvalue.ObjectType:
			next, ok := current.TryGetByKey(segment)
			if !ok {
				return ldvalue.Null(), false
			}
			current = next
		case ldvalue.ArrayType:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= current.Count() {
				return ldvalue.Null(), false
			}
			current = current.GetByIndex(index)
		default:
			return ldvalue.Null(), false
		}
	}
	return current, !current.IsNull()
}
