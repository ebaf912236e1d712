package gettopmenus

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

	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/feedback"
	"menu-recommender/internal/models"
)

var scoreColumns = []string{"place_name", "menu_name", "good", "bad"}

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second},
		Ranker:       feedback.NewStore(db),
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

func TestNewHandler_RequiresRanker(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Logger: logger.NewNoOpLogger()})
	assert.Error(t, err)
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	cfg := createConfigFromAppConfig(&config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 2, Timeout: 1500},
	}}, nil)

	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
}

func TestExecute_ReturnsRanking(t *testing.T) {
	h, mock := createTestHandler(t)

	mock.ExpectQuery(`GROUP BY place_name, menu_name`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(scoreColumns).
			AddRow("김밥천국", "참치김밥", 4, 1).
			AddRow("국밥집", "순대국밥", 2, 2))

	output, err := h.Execute(context.Background(), &Input{Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, output.Count)
	assert.Equal(t, models.FeedbackScore{PlaceName: "김밥천국", MenuName: "참치김밥", Good: 4, Bad: 1, Score: 3}, output.Menus[0])
	assert.Equal(t, 0, output.Menus[1].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_DefaultLimit(t *testing.T) {
	h, mock := createTestHandler(t)

	mock.ExpectQuery(`GROUP BY place_name, menu_name`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(scoreColumns))

	output, err := h.process(context.Background(), createMockJob(1, map[string]interface{}{"orderId": "x"}))
	require.NoError(t, err)
	assert.Equal(t, 0, output.Count)
	assert.NotNil(t, output.Menus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_InvalidLimit(t *testing.T) {
	h, _ := createTestHandler(t)

	tests := []struct {
		name  string
		limit interface{}
	}{
		{"negative", -1},
		{"above maximum", 101},
		{"fractional", 2.5},
		{"text", "ten"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.process(context.Background(), createMockJob(int64(i+1), map[string]interface{}{"limit": tt.limit}))
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
		})
	}
}

func TestExecute_QueryFailure(t *testing.T) {
	h, mock := createTestHandler(t)

	mock.ExpectQuery(`GROUP BY place_name, menu_name`).WillReturnError(stderrors.New("connection reset"))

	_, err := h.Execute(context.Background(), &Input{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeQueryExecutionFailed))
}

func TestOutput_Variables(t *testing.T) {
	out := &Output{Menus: []models.FeedbackScore{{PlaceName: "a", MenuName: "b", Good: 1, Score: 1}}, Count: 1}
	vars := out.Variables()

	assert.Equal(t, 1, vars["count"])
	assert.Len(t, vars["menus"], 1)
}
