package recommendmenu

import "menu-recommender/internal/common/validation"

// GetInputSchema checks types only. Unknown budget, hunger and drink values
// are accepted and handled leniently by the engine.
func GetInputSchema() validation.JSONSchema {
	optionalString := func(description string) validation.Property {
		return validation.Property{
			Type:        "string",
			Description: description,
			Nullable:    true,
			MaxLength:   validation.IntPtr(200),
		}
	}
	stringList := func(description string) validation.Property {
		return validation.Property{
			Type:        "array",
			Description: description,
			Nullable:    true,
			Items:       &validation.Property{Type: "string"},
		}
	}

	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"userId":     optionalString("Requesting user"),
			"region":     optionalString("Region the menu must be in"),
			"diningMode": optionalString("혼자/solo/alone/1 for solo dining, anything else for a group"),
			"budget":     optionalString("Budget band"),
			"drink":      optionalString("Drink pairing"),
			"hunger":     optionalString("Hunger level"),
			"allergies":  stringList("Allergens to exclude"),
			"diseases":   stringList("Conditions whose danger keywords are excluded"),
		},
		AdditionalProperties: true,
	}
}
