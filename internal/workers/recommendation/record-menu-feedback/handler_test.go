package recordfeedback

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/feedback"
)

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second},
		Store:        feedback.NewStore(db),
		Logger:       logger.NewZapAdapter(zaptest.NewLogger(t)),
	})
	require.NoError(t, err)
	return h, mock
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       key,
		Type:      TaskType,
		Retries:   3,
		Variables: string(variablesJSON),
	}}
}

func TestExecute_RecordsAndScores(t *testing.T) {
	h, mock := createTestHandler(t)

	mock.ExpectQuery(`INSERT INTO menu_feedback`).
		WithArgs("u1", "김밥천국", "참치김밥", "good", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectQuery(`FROM menu_feedback WHERE place_name = \$1 AND menu_name = \$2`).
		WithArgs("김밥천국", "참치김밥").
		WillReturnRows(sqlmock.NewRows([]string{"good", "bad"}).AddRow(3, 1))

	output, err := h.Execute(context.Background(), &Input{
		UserID: "u1", PlaceName: "김밥천국", MenuName: "참치김밥", Feedback: " Good ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), output.FeedbackID)
	assert.Equal(t, 2, output.Score.Score)

	vars := output.Variables()
	assert.Equal(t, int64(11), vars["feedbackId"])
	assert.Equal(t, map[string]interface{}{"good": 3, "bad": 1, "score": 2}, vars["score"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_InvalidVerdict(t *testing.T) {
	h, mock := createTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{PlaceName: "a", MenuName: "b", Feedback: "so-so"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFeedbackValue))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_PersistenceFailure(t *testing.T) {
	h, mock := createTestHandler(t)
	mock.ExpectQuery(`INSERT INTO menu_feedback`).WillReturnError(stderrors.New("connection reset"))

	_, err := h.Execute(context.Background(), &Input{PlaceName: "a", MenuName: "b", Feedback: "bad"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeFeedbackPersistenceFailed))
}

func TestProcess_RequiredFields(t *testing.T) {
	h, _ := createTestHandler(t)

	tests := []struct {
		name      string
		variables map[string]interface{}
	}{
		{"missing feedback", map[string]interface{}{"placeName": "a", "menuName": "b"}},
		{"empty place", map[string]interface{}{"placeName": "", "menuName": "b", "feedback": "good"}},
		{"numeric feedback", map[string]interface{}{"placeName": "a", "menuName": "b", "feedback": 1}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.process(context.Background(), createMockJob(int64(i+1), tt.variables))
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
		})
	}
}
