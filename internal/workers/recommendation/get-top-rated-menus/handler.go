package gettopmenus

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
	"menu-recommender/internal/models"
)

const TaskType = "get-top-rated-menus"

// Ranker is satisfied by *feedback.Store.
type Ranker interface {
	TopScored(ctx context.Context, limit int) ([]models.FeedbackScore, error)
}

type Handler struct {
	config       *Config
	ranker       Ranker
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Ranker        Ranker
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Ranker == nil {
		return nil, fmt.Errorf("%s: feedback ranker is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		ranker:       opts.Ranker,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	menus, err := h.ranker.TopScored(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("top rated menus listed", map[string]interface{}{
		"limit": input.Limit,
		"count": len(menus),
	})
	return &Output{Menus: menus, Count: len(menus)}, nil
}
