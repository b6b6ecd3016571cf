package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const inlineSchemaURL = "inline-schema.json"

// ValidateSchema checks a JSON document against a JSON Schema given as text. Every error the
// schema library reports becomes a Violation whose Field is the JSON pointer of the offending
// value.
func ValidateSchema(body []byte, schema string) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(inlineSchemaURL, strings.NewReader(schema)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := compiler.Compile(inlineSchemaURL)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return failf(CheckSchema, "Response body is not valid JSON: %s", err)
	}

	err = compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var violations []Violation
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" {
			continue
		}
		violations = append(violations, Violation{
			Field:   e.InstanceLocation,
			Check:   CheckSchema,
			Message: fmt.Sprintf("Schema violation at '%s': %s", e.InstanceLocation, e.Error),
		})
	}
	if len(violations) == 0 {
		violations = append(violations, Violation{Check: CheckSchema, Message: ve.Error()})
	}
	return &ValidationFailure{Violations: violations}
}
