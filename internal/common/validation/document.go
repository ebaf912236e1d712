package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// DocumentValidator checks decoded JSON documents against a compiled JSON Schema.
// It is safe for concurrent use.
type DocumentValidator struct {
	schema *gojsonschema.Schema
}

// NewDocumentValidator compiles a JSON Schema given as a JSON string.
func NewDocumentValidator(schemaJSON string) (*DocumentValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &DocumentValidator{schema: schema}, nil
}

// Validate reports every violation in doc. Missing required properties are
// reported against the property name rather than the document root.
func (v *DocumentValidator) Validate(doc interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		code := "SCHEMA_VIOLATION"
		if desc.Type() == "required" {
			code = "REQUIRED_FIELD_MISSING"
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    code,
		})
	}
	return out, nil
}
