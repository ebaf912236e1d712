package gethistory

import "menu-recommender/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"userId": {
				Type:        "string",
				Description: "Only records of this user",
				Nullable:    true,
				MaxLength:   validation.IntPtr(200),
			},
			"since": {
				Type:        "string",
				Description: "RFC3339 lower bound, inclusive",
				Nullable:    true,
			},
			"until": {
				Type:        "string",
				Description: "RFC3339 upper bound, inclusive",
				Nullable:    true,
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of records; capped by history.max_limit",
				Nullable:    true,
				Minimum:     validation.FloatPtr(0),
			},
		},
		AdditionalProperties: true,
	}
}
