// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	// outcome is "recommended" or "no_eligible_menu"; stage is empty for recommended.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendation outcomes by exhausted stage",
		},
		[]string{"outcome", "stage"},
	)

	RecommendationLenientFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_lenient_fallbacks_total",
			Help: "Unrecognized request values replaced by permissive defaults",
		},
		[]string{"field"},
	)

	RecommendationSelectedWeight = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_selected_weight",
			Help:    "Weight of the selected menu item",
			Buckets: []float64{1, 3, 5, 7},
		},
	)

	HistoryPersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_history_failures_total",
			Help: "History appends that failed after a recommendation was produced",
		},
		[]string{"backend"},
	)

	CatalogItemsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_items_loaded",
			Help: "Menu items in the currently served catalog",
		},
		[]string{"source"},
	)

	MenuFeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_feedback_total",
			Help: "Menu feedback received by verdict",
		},
		[]string{"verdict"},
	)
)
