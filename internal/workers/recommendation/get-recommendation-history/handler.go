package gethistory

import (
	"context"
	"fmt"
	"strings"
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

const TaskType = "get-recommendation-history"

// HistoryReader is satisfied by *recommend.Engine.
type HistoryReader interface {
	GetHistory(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryRecord, error)
}

type Handler struct {
	config       *Config
	reader       HistoryReader
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Reader        HistoryReader
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Reader == nil {
		return nil, fmt.Errorf("%s: history reader is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		reader:       opts.Reader,
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
	filter, err := input.filter()
	if err != nil {
		return nil, err
	}

	records, err := h.reader.GetHistory(ctx, filter)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("history listed", map[string]interface{}{
		"userId": filter.UserID,
		"count":  len(records),
	})
	return &Output{Records: records, Count: len(records)}, nil
}

func (in *Input) filter() (models.HistoryFilter, error) {
	filter := models.HistoryFilter{
		UserID: strings.TrimSpace(in.UserID),
		Limit:  in.Limit,
	}

	var problems []string
	var err error
	if s := strings.TrimSpace(in.Since); s != "" {
		if filter.Since, err = time.Parse(time.RFC3339, s); err != nil {
			problems = append(problems, fmt.Sprintf("since: %v", err))
		}
	}
	if s := strings.TrimSpace(in.Until); s != "" {
		if filter.Until, err = time.Parse(time.RFC3339, s); err != nil {
			problems = append(problems, fmt.Sprintf("until: %v", err))
		}
	}
	if len(problems) == 0 && !filter.Since.IsZero() && !filter.Until.IsZero() && filter.Until.Before(filter.Since) {
		problems = append(problems, "until: must not be before since")
	}

	if len(problems) > 0 {
		return models.HistoryFilter{}, errors.NewValidationFailedError(problems)
	}
	return filter, nil
}
