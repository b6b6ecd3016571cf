package data

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

type substitutionSet map[string]ldvalue.Value

var (
	quotedGeneratedRegex = regexp.MustCompile(`"<\$(\w+)>"`) //nolint:gochecknoglobals
	generatedRegex       = regexp.MustCompile(`<\$(\w+)>`)   //nolint:gochecknoglobals
)

func expandSubstitutions(originalData []byte, generator *Generator) ([]Fixture, error) {
	doc, err := ParseValue(originalData)
	if err != nil {
		return nil, err
	}
	if doc.Type() != ldvalue.ObjectType {
		return []Fixture{{Data: replaceGenerated(originalData, generator)}}, nil
	}
	var substs struct {
		Constants  substitutionSet   `json:"constants"`
		Parameters []json.RawMessage `json:"parameters"`
	}
	if err := ParseJSONOrYAML(originalData, &substs); err != nil {
		return nil, err
	}
	parameterSets, err := makeParameterPermutations(substs.Parameters)
	if err != nil {
		return nil, err
	}
	if len(parameterSets) == 0 {
		transformed := replaceVariables(originalData, substs.Constants)
		return []Fixture{{Data: replaceGenerated(transformed, generator)}}, nil
	}
	ret := make([]Fixture, 0, len(parameterSets))
	for _, paramsSet := range parameterSets {
		transformed := replaceVariables(originalData, substs.Constants)
		transformed = replaceVariables(transformed, paramsSet)
		transformed = replaceVariables(transformed, substs.Constants)
		transformed = replaceGenerated(transformed, generator)
		ret = append(ret, Fixture{Data: transformed, Params: paramsSet})
	}
	return ret, nil
}

// makeParameterPermutations accepts either a list of parameter sets, or a list of lists whose
// cross product is taken.
func makeParameterPermutations(paramsData []json.RawMessage) ([]substitutionSet, error) {
	if len(paramsData) == 0 {
		return nil, nil
	}
	allData, _ := json.Marshal(paramsData)
	switch ldvalue.Parse(paramsData[0]).Type() {
	case ldvalue.ObjectType:
		var list []substitutionSet
		if err := json.Unmarshal(allData, &list); err != nil {
			return nil, err
		}
		return list, nil
	case ldvalue.ArrayType:
	default:
		return nil, errors.New("unable to parse parameters - must be an array of objects or an array of arrays")
	}
	var lists [][]substitutionSet
	if err := json.Unmarshal(allData, &lists); err != nil {
		return nil, err
	}
	for _, list := range lists {
		if len(list) == 0 {
			return nil, errors.New("unable to parse parameters - a parameter list cannot be empty")
		}
	}
	indices := make([]int, len(lists))
	var result []substitutionSet
	for {
		mergedSet := make(substitutionSet)
		for i := 0; i < len(lists); i++ {
			for k, v := range lists[i][indices[i]] {
				mergedSet[k] = v
			}
		}
		result = append(result, mergedSet)
		incrementPos := 0
		for incrementPos < len(lists) {
			indices[incrementPos]++
			if indices[incrementPos] < len(lists[incrementPos]) {
				break
			}
			indices[incrementPos] = 0
			incrementPos++
		}
		if incrementPos == len(lists) {
			return result, nil
		}
	}
}

// replaceVariables substitutes "<name>" with the JSON form of the value when it is a whole
// quoted string, and with the plain text of the value when it is embedded in a larger string.
func replaceVariables(originalData []byte, substs substitutionSet) []byte {
	str := string(originalData)
	str = strings.ReplaceAll(str, `\u003c`, "<")
	str = strings.ReplaceAll(str, `\u003e`, ">")
	for name, value := range substs {
		typedValueStr := value.JSONString()
		str = strings.ReplaceAll(str, `"<`+name+`>"`, typedValueStr)
		str = strings.ReplaceAll(str, "<"+name+">", interpolated(value))
	}
	return []byte(str)
}

// replaceGenerated fills in "<$name>" placeholders, drawing a new value for each occurrence.
// Unknown names are left as they are.
func replaceGenerated(originalData []byte, generator *Generator) []byte {
	str := quotedGeneratedRegex.ReplaceAllStringFunc(string(originalData), func(match string) string {
		name := quotedGeneratedRegex.FindStringSubmatch(match)[1]
		if value, ok := generator.Generate(name); ok {
			return value.JSONString()
		}
		return match
	})
	str = generatedRegex.ReplaceAllStringFunc(str, func(match string) string {
		name := generatedRegex.FindStringSubmatch(match)[1]
		if value, ok := generator.Generate(name); ok {
			return interpolated(value)
		}
		return match
	})
	return []byte(str)
}

func interpolated(value ldvalue.Value) string {
	if value.IsString() {
		return value.StringValue()
	}
	return value.JSONString()
}

// ExpandGenerated replaces "<$name>" placeholders in a JSON document with generated values, the
// same way they are replaced in fixture files.
func ExpandGenerated(doc []byte, generator *Generator) []byte {
	return replaceGenerated(doc, generator)
}
