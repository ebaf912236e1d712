package recordfeedback

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"menu-recommender/internal/common/camunda"
	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/common/metrics"
	"menu-recommender/internal/common/observability"
	"menu-recommender/internal/feedback"
	"menu-recommender/internal/models"
)

const TaskType = "record-menu-feedback"

// FeedbackStore is satisfied by *feedback.Store.
type FeedbackStore interface {
	Record(ctx context.Context, fb models.Feedback) (int64, error)
	Score(ctx context.Context, placeName, menuName string) (models.FeedbackScore, error)
}

type Handler struct {
	config       *Config
	store        FeedbackStore
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Store         FeedbackStore
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%s: feedback store is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		store:        opts.Store,
		obs:          opts.Observability,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job)
	if err != nil {
		bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output.Variables()); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime))
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input := &Input{}
	if err := camunda.DecodeVariables(job, GetInputSchema(), input); err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

// Execute stores the verdict and returns the menu's updated score.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	verdict, err := feedback.ParseVerdict(input.Feedback)
	if err != nil {
		return nil, err
	}

	id, err := h.store.Record(ctx, models.Feedback{
		UserID:    input.UserID,
		PlaceName: input.PlaceName,
		MenuName:  input.MenuName,
		Verdict:   verdict,
	})
	if err != nil {
		return nil, err
	}

	score, err := h.store.Score(ctx, input.PlaceName, input.MenuName)
	if err != nil {
		return nil, err
	}

	h.logger.Info("feedback recorded", map[string]interface{}{
		"feedbackId": id,
		"placeName":  score.PlaceName,
		"menuName":   score.MenuName,
		"verdict":    string(verdict),
		"score":      score.Score,
	})
	return &Output{FeedbackID: id, Score: score}, nil
}
