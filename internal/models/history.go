// internal/models/history.go
package models

import "time"

// HistoryRecord is an append-only audit entry of one recommendation.
type HistoryRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	MenuID        int64     `json:"menuId"`
	RestaurantID  int64     `json:"restaurantId"`
	PlaceName     string    `json:"placeName"`
	MenuName      string    `json:"menuName"`
	RecommendedAt time.Time `json:"recommendedAt"`
}

// HistoryFilter narrows a history query. Zero values mean "no constraint".
type HistoryFilter struct {
	UserID string
	Since  time.Time
	Until  time.Time
	Limit  int
}
