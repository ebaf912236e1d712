package gettopmenus

import "menu-recommender/internal/models"

type Input struct {
	Limit int `json:"limit"`
}

type Output struct {
	Menus []models.FeedbackScore `json:"menus"`
	Count int                    `json:"count"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"menus": o.Menus,
		"count": o.Count,
	}
}
