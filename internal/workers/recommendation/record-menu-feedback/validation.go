package recordfeedback

import "menu-recommender/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"placeName", "menuName", "feedback"},
		Properties: map[string]validation.Property{
			"userId": {
				Type:      "string",
				Nullable:  true,
				MaxLength: validation.IntPtr(200),
			},
			"placeName": {
				Type:        "string",
				Description: "Restaurant of the recommended menu",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(200),
			},
			"menuName": {
				Type:        "string",
				Description: "Recommended menu",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(200),
			},
			// checked by feedback.ParseVerdict so that case and spacing are tolerated
			"feedback": {
				Type:        "string",
				Description: "good or bad",
			},
		},
		AdditionalProperties: true,
	}
}
