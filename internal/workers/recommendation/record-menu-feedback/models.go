package recordfeedback

import "menu-recommender/internal/models"

type Input struct {
	UserID    string `json:"userId"`
	PlaceName string `json:"placeName"`
	MenuName  string `json:"menuName"`
	Feedback  string `json:"feedback"`
}

type Output struct {
	FeedbackID int64                `json:"feedbackId"`
	Score      models.FeedbackScore `json:"score"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"feedbackId": o.FeedbackID,
		"score": map[string]interface{}{
			"good":  o.Score.Good,
			"bad":   o.Score.Bad,
			"score": o.Score.Score,
		},
	}
}
