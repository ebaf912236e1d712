package reloadcatalog

import "menu-recommender/internal/common/validation"

// GetInputSchema accepts any process variables; the task takes no input.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:                 "object",
		Properties:           map[string]validation.Property{},
		AdditionalProperties: true,
	}
}
