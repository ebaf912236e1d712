package recommendmenu

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"menu-recommender/internal/common/camunda"
	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/common/metrics"
	"menu-recommender/internal/common/observability"
	"menu-recommender/internal/models"
	"menu-recommender/internal/recommend"
)

const TaskType = "recommend-menu"

// Recommender is satisfied by *recommend.Engine.
type Recommender interface {
	Recommend(ctx context.Context, req models.RecommendationRequest) (models.RecommendationResult, error)
	Rules() *recommend.Rules
}

type Handler struct {
	config       *Config
	engine       Recommender
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	newID        func() string
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Engine        Recommender
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%s: engine is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		engine:       opts.Engine,
		obs:          opts.Observability,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		newID:        uuid.NewString,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Debug("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
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

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	input := &Input{}
	if err := camunda.DecodeVariables(job, GetInputSchema(), input); err != nil {
		return nil, err
	}
	return input, nil
}

// Execute normalizes input and draws a recommendation. A request no menu
// satisfies completes normally with Eligible false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req := recommend.Normalize(input.raw(), h.engine.Rules())

	result, err := h.engine.Recommend(ctx, req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
			return nil, errors.NewTimeoutError(TaskType, err)
		}
		return nil, err
	}

	return &Output{
		Eligible:         result.Eligible(),
		Recommendation:   result.Recommendation,
		NoEligibleMenu:   result.NoEligibleMenu,
		HistoryRecorded:  result.HistoryRecorded,
		HistoryID:        result.HistoryID,
		RecommendationID: h.newID(),
		Lenient:          req.Lenient,
	}, nil
}
