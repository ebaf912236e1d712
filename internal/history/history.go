// Package history persists recommendation outcomes and reads them back newest first.
package history

import (
	"context"
	"time"

	"menu-recommender/internal/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Recorder appends one history record per successful recommendation. Records are never updated.
type Recorder interface {
	Record(ctx context.Context, userID string, item models.MenuItem, at time.Time) (models.HistoryRecord, error)
}

// Reader lists records newest first, ties broken by id descending.
type Reader interface {
	History(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryRecord, error)
}

// Store is a history backend.
type Store interface {
	Recorder
	Reader
	Backend() string
}

// ClampLimit applies def to non-positive limits and caps the result at max.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}

func newRecord(id, userID string, item models.MenuItem, at time.Time) models.HistoryRecord {
	return models.HistoryRecord{
		ID:            id,
		UserID:        userID,
		MenuID:        item.MenuID,
		RestaurantID:  item.RestaurantID,
		PlaceName:     item.PlaceName,
		MenuName:      item.MenuName,
		RecommendedAt: at.UTC(),
	}
}
