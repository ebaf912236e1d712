package feedback

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/models"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.Verdict
		wantErr bool
	}{
		{raw: "good", want: models.VerdictGood},
		{raw: " BAD ", want: models.VerdictBad},
		{raw: "Good", want: models.VerdictGood},
		{raw: "meh", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseVerdict(tt.raw)
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFeedbackValue))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO menu_feedback`).
		WithArgs(nil, "김밥천국", "참치김밥", "good", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	id, err := NewStore(db).Record(context.Background(), models.Feedback{
		PlaceName: " 김밥천국 ",
		MenuName:  "참치김밥",
		Verdict:   "GOOD",
		CreatedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordWithUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO menu_feedback`).
		WithArgs("u1", "김밥천국", "라면", "bad", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(6)))

	id, err := NewStore(db).Record(context.Background(), models.Feedback{
		UserID: "u1", PlaceName: "김밥천국", MenuName: "라면", Verdict: models.VerdictBad,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordInvalidVerdict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewStore(db).Record(context.Background(), models.Feedback{PlaceName: "a", MenuName: "b", Verdict: "so-so"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFeedbackValue))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO menu_feedback`).WillReturnError(stderrors.New("connection reset"))

	_, err = NewStore(db).Record(context.Background(), models.Feedback{PlaceName: "a", MenuName: "b", Verdict: "good"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeFeedbackPersistenceFailed))
}

func TestStore_Score(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM menu_feedback WHERE place_name = \$1 AND menu_name = \$2`).
		WithArgs("김밥천국", "참치김밥").
		WillReturnRows(sqlmock.NewRows([]string{"good", "bad"}).AddRow(4, 1))

	score, err := NewStore(db).Score(context.Background(), "김밥천국", "참치김밥")
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackScore{PlaceName: "김밥천국", MenuName: "참치김밥", Good: 4, Bad: 1, Score: 3}, score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ScoreTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM menu_feedback`).
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"good", "bad"}).AddRow(1, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = NewStore(db).Score(ctx, "김밥천국", "참치김밥")
	assert.True(t, errors.HasCode(err, errors.ErrCodeQueryTimeout))
}

func TestStore_TopScored(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`GROUP BY place_name, menu_name`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"place_name", "menu_name", "good", "bad"}).
			AddRow("a", "x", 5, 0).
			AddRow("b", "y", 2, 3))

	scores, err := NewStore(db).TopScored(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 5, scores[0].Score)
	assert.Equal(t, -1, scores[1].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
