package reloadcatalog

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"menu-recommender/internal/catalog"
	"menu-recommender/internal/common/camunda"
	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/common/metrics"
	"menu-recommender/internal/common/observability"
)

const TaskType = "reload-menu-catalog"

// Reloader is satisfied by *catalog.Loader.
type Reloader interface {
	Reload(ctx context.Context) (*catalog.Store, error)
}

type Handler struct {
	config       *Config
	loader       Reloader
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Loader        Reloader
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Loader == nil {
		return nil, fmt.Errorf("%s: catalog loader is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		loader:       opts.Loader,
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

// Execute reloads the catalog. A failed reload leaves the catalog in service untouched.
func (h *Handler) Execute(ctx context.Context, _ *Input) (*Output, error) {
	store, err := h.loader.Reload(ctx)
	if err != nil {
		return nil, err
	}

	return &Output{
		ItemCount: store.Len(),
		Regions:   store.Regions(),
		Source:    store.Source(),
		LoadedAt:  store.LoadedAt(),
	}, nil
}
