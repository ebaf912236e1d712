// Package feedback stores good/bad verdicts on recommended menus and aggregates them.
package feedback

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/metrics"
	"menu-recommender/internal/models"
)

const defaultTopLimit = 10

var Schema = []string{
	`CREATE TABLE IF NOT EXISTS menu_feedback (
	id         BIGSERIAL PRIMARY KEY,
	user_id    TEXT,
	place_name TEXT NOT NULL,
	menu_name  TEXT NOT NULL,
	feedback   TEXT NOT NULL CHECK (feedback IN ('good', 'bad')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_menu_feedback_menu ON menu_feedback (place_name, menu_name)`,
}

// ParseVerdict accepts "good" or "bad" in any case, surrounded by spaces.
func ParseVerdict(raw string) (models.Verdict, error) {
	switch v := models.Verdict(strings.ToLower(strings.TrimSpace(raw))); v {
	case models.VerdictGood, models.VerdictBad:
		return v, nil
	}
	return "", errors.NewInvalidFeedbackValueError(raw)
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record appends fb and returns its id. An empty UserID is stored as NULL.
func (s *Store) Record(ctx context.Context, fb models.Feedback) (int64, error) {
	verdict, err := ParseVerdict(string(fb.Verdict))
	if err != nil {
		return 0, err
	}
	createdAt := fb.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO menu_feedback (user_id, place_name, menu_name, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		sql.NullString{String: fb.UserID, Valid: fb.UserID != ""},
		strings.TrimSpace(fb.PlaceName), strings.TrimSpace(fb.MenuName), string(verdict), createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, errors.NewFeedbackPersistenceError(err)
	}

	metrics.MenuFeedbackTotal.WithLabelValues(string(verdict)).Inc()
	return id, nil
}

// Score aggregates the feedback of one menu. A menu without feedback scores zero.
func (s *Store) Score(ctx context.Context, placeName, menuName string) (models.FeedbackScore, error) {
	score := models.FeedbackScore{
		PlaceName: strings.TrimSpace(placeName),
		MenuName:  strings.TrimSpace(menuName),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE feedback = 'good'),
		       COUNT(*) FILTER (WHERE feedback = 'bad')
		FROM menu_feedback
		WHERE place_name = $1 AND menu_name = $2`,
		score.PlaceName, score.MenuName,
	).Scan(&score.Good, &score.Bad)
	if err != nil {
		return models.FeedbackScore{}, queryError(ctx, "feedback_score", err)
	}

	score.Score = score.Good - score.Bad
	return score, nil
}

// TopScored returns the best scored menus, highest score first.
func (s *Store) TopScored(ctx context.Context, limit int) ([]models.FeedbackScore, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT place_name, menu_name,
		       COUNT(*) FILTER (WHERE feedback = 'good') AS good,
		       COUNT(*) FILTER (WHERE feedback = 'bad') AS bad
		FROM menu_feedback
		GROUP BY place_name, menu_name
		ORDER BY (COUNT(*) FILTER (WHERE feedback = 'good') - COUNT(*) FILTER (WHERE feedback = 'bad')) DESC,
		         place_name, menu_name
		LIMIT $1`, limit)
	if err != nil {
		return nil, queryError(ctx, "feedback_top_scored", err)
	}
	defer rows.Close()

	scores := []models.FeedbackScore{}
	for rows.Next() {
		var sc models.FeedbackScore
		if err := rows.Scan(&sc.PlaceName, &sc.MenuName, &sc.Good, &sc.Bad); err != nil {
			return nil, errors.NewQueryExecutionFailedError("feedback_top_scored", err)
		}
		sc.Score = sc.Good - sc.Bad
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("feedback_top_scored", err)
	}

	return scores, nil
}

func queryError(ctx context.Context, query string, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(query)
	}
	return errors.NewQueryExecutionFailedError(query, err)
}
