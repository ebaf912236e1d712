// internal/common/camunda/worker.go
package camunda

import (
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/logger"
)

// HandlerFunc is the job callback every task package exposes as Handler.Handle.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Workers opens job workers and closes them together on shutdown.
type Workers struct {
	client zbc.Client
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkers(client zbc.Client, log logger.Logger) *Workers {
	return &Workers{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled. It reports whether a worker was opened.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jobWorker := w.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	w.mu.Lock()
	w.workers[taskType] = jobWorker
	w.mu.Unlock()

	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Running returns the task types with an open worker.
func (w *Workers) Running() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.workers))
	for taskType := range w.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops polling and waits for in-flight handlers of every worker.
func (w *Workers) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for taskType, jobWorker := range w.workers {
		w.logger.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		jobWorker.Close()
		jobWorker.AwaitClose()
	}
	w.workers = make(map[string]worker.JobWorker)
}
