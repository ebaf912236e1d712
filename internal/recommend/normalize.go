package recommend

import (
	"strings"

	"menu-recommender/internal/models"
)

// Lenient field names.
const (
	FieldBudget  = "budget"
	FieldHunger  = "hunger"
	FieldDrink   = "drink"
	FieldDisease = "disease"
)

// RawRequest is a recommendation request as received, before normalization.
type RawRequest struct {
	UserID     string   `json:"userId"`
	Region     string   `json:"region"`
	DiningMode string   `json:"diningMode"`
	Budget     string   `json:"budget"`
	Drink      string   `json:"drink"`
	Hunger     string   `json:"hunger"`
	Allergies  []string `json:"allergies"`
	Diseases   []string `json:"diseases"`
}

var soloValues = map[string]bool{"혼자": true, "solo": true, "alone": true, "1": true}

// Normalize trims and canonicalizes raw. It never rejects a request: unknown
// budget, hunger, drink and disease values are kept and listed in Lenient, and
// the filter and weighting stages treat them as full range or no keywords.
func Normalize(raw RawRequest, rules *Rules) models.RecommendationRequest {
	req := models.RecommendationRequest{
		UserID:          strings.TrimSpace(raw.UserID),
		Region:          strings.TrimSpace(raw.Region),
		DiningMode:      models.DiningGroup,
		BudgetBand:      strings.TrimSpace(raw.Budget),
		DrinkPreference: strings.TrimSpace(raw.Drink),
		HungerLevel:     strings.TrimSpace(raw.Hunger),
		Allergies:       toSet(raw.Allergies),
		Diseases:        toSet(raw.Diseases),
	}

	if soloValues[strings.ToLower(strings.TrimSpace(raw.DiningMode))] {
		req.DiningMode = models.DiningSolo
	}
	if req.DrinkPreference == "" {
		req.DrinkPreference = models.DrinkNone
	}

	if req.BudgetBand != "" {
		if _, ok := LookupBudget(req.BudgetBand); !ok {
			req.Lenient = append(req.Lenient, FieldBudget)
		}
	}
	if req.HungerLevel != "" {
		if _, ok := rules.HungerKeywords(req.HungerLevel); !ok {
			req.Lenient = append(req.Lenient, FieldHunger)
		}
	}
	if _, ok := rules.DrinkKeywords(req.DrinkPreference); !ok {
		req.Lenient = append(req.Lenient, FieldDrink)
	}
	for _, d := range req.Diseases.Slice() {
		if !rules.KnownDisease(d) {
			req.Lenient = append(req.Lenient, FieldDisease)
			break
		}
	}

	return req
}

func toSet(values []string) models.StringSet {
	set := models.NewStringSet()
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
