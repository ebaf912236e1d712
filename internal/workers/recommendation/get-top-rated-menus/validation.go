package gettopmenus

import "menu-recommender/internal/common/validation"

const maxLimit = 100

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"limit": {
				Type:        "integer",
				Description: "Number of menus to return; 0 or absent means 10",
				Nullable:    true,
				Minimum:     validation.FloatPtr(0),
				Maximum:     validation.FloatPtr(maxLimit),
			},
		},
		AdditionalProperties: true,
	}
}
