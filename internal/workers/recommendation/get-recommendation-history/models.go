package gethistory

import "menu-recommender/internal/models"

type Input struct {
	UserID string `json:"userId"`
	Since  string `json:"since"`
	Until  string `json:"until"`
	Limit  int    `json:"limit"`
}

type Output struct {
	Records []models.HistoryRecord `json:"records"`
	Count   int                    `json:"count"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"records": o.Records,
		"count":   o.Count,
	}
}
