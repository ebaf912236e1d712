// internal/models/feedback.go
package models

import "time"

type Verdict string

const (
	VerdictGood Verdict = "good"
	VerdictBad  Verdict = "bad"
)

type Feedback struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	PlaceName string    `json:"placeName"`
	MenuName  string    `json:"menuName"`
	Verdict   Verdict   `json:"feedback"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackScore aggregates feedback for one (place, menu) pair. Score is Good minus Bad.
type FeedbackScore struct {
	PlaceName string `json:"placeName"`
	MenuName  string `json:"menuName"`
	Good      int    `json:"good"`
	Bad       int    `json:"bad"`
	Score     int    `json:"score"`
}
