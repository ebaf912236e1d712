package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/models"
)

// PostgresSchema creates the history table. id ordering follows insertion order.
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS recommendation_history (
	id             BIGSERIAL PRIMARY KEY,
	user_id        TEXT NOT NULL DEFAULT '',
	menu_id        BIGINT NOT NULL,
	restaurant_id  BIGINT NOT NULL,
	place_name     TEXT NOT NULL,
	menu_name      TEXT NOT NULL,
	recommended_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendation_history_user
	ON recommendation_history (user_id, recommended_at DESC, id DESC)`,
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Backend() string { return config.HistoryBackendPostgres }

func (s *PostgresStore) Record(ctx context.Context, userID string, item models.MenuItem, at time.Time) (models.HistoryRecord, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO recommendation_history (user_id, menu_id, restaurant_id, place_name, menu_name, recommended_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		userID, item.MenuID, item.RestaurantID, item.PlaceName, item.MenuName, at.UTC(),
	).Scan(&id)
	if err != nil {
		return models.HistoryRecord{}, errors.NewHistoryPersistenceError(s.Backend(), err)
	}

	return newRecord(strconv.FormatInt(id, 10), userID, item, at), nil
}

func (s *PostgresStore) History(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryRecord, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		conds = append(conds, fmt.Sprintf("recommended_at >= $%d", len(args)))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until.UTC())
		conds = append(conds, fmt.Sprintf("recommended_at <= $%d", len(args)))
	}
	args = append(args, ClampLimit(filter.Limit, DefaultLimit, MaxLimit))

	query := `SELECT id, user_id, menu_id, restaurant_id, place_name, menu_name, recommended_at
		FROM recommendation_history`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY recommended_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewHistoryQueryFailedError(s.Backend(), err)
	}
	defer rows.Close()

	records := []models.HistoryRecord{}
	for rows.Next() {
		var (
			id  int64
			rec models.HistoryRecord
		)
		if err := rows.Scan(&id, &rec.UserID, &rec.MenuID, &rec.RestaurantID, &rec.PlaceName, &rec.MenuName, &rec.RecommendedAt); err != nil {
			return nil, errors.NewHistoryQueryFailedError(s.Backend(), err)
		}
		rec.ID = strconv.FormatInt(id, 10)
		rec.RecommendedAt = rec.RecommendedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewHistoryQueryFailedError(s.Backend(), err)
	}

	return records, nil
}
