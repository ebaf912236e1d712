package recommendmenu

import (
	"menu-recommender/internal/models"
	"menu-recommender/internal/recommend"
)

// Input carries the raw request variables. Normalization happens in Execute.
type Input struct {
	UserID     string   `json:"userId"`
	Region     string   `json:"region"`
	DiningMode string   `json:"diningMode"`
	Budget     string   `json:"budget"`
	Drink      string   `json:"drink"`
	Hunger     string   `json:"hunger"`
	Allergies  []string `json:"allergies"`
	Diseases   []string `json:"diseases"`
}

func (in *Input) raw() recommend.RawRequest {
	return recommend.RawRequest{
		UserID:     in.UserID,
		Region:     in.Region,
		DiningMode: in.DiningMode,
		Budget:     in.Budget,
		Drink:      in.Drink,
		Hunger:     in.Hunger,
		Allergies:  in.Allergies,
		Diseases:   in.Diseases,
	}
}

type Output struct {
	Eligible         bool                   `json:"eligible"`
	Recommendation   *models.Recommendation `json:"recommendation,omitempty"`
	NoEligibleMenu   *models.NoEligibleMenu `json:"noEligibleMenu,omitempty"`
	HistoryRecorded  bool                   `json:"historyRecorded"`
	HistoryID        string                 `json:"historyId,omitempty"`
	RecommendationID string                 `json:"recommendationId"`
	Lenient          []string               `json:"lenient,omitempty"`
}

// Variables is the process variable payload sent on job completion.
func (o *Output) Variables() map[string]interface{} {
	vars := map[string]interface{}{
		"eligible":         o.Eligible,
		"historyRecorded":  o.HistoryRecorded,
		"recommendationId": o.RecommendationID,
	}
	if o.Recommendation != nil {
		vars["recommendation"] = o.Recommendation
	}
	if o.NoEligibleMenu != nil {
		vars["noEligibleMenu"] = o.NoEligibleMenu
	}
	if o.HistoryID != "" {
		vars["historyId"] = o.HistoryID
	}
	if len(o.Lenient) > 0 {
		vars["lenient"] = o.Lenient
	}
	return vars
}
