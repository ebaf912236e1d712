package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"menu-recommender/internal/catalog"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/common/metrics"
	"menu-recommender/internal/common/observability"
	"menu-recommender/internal/history"
	"menu-recommender/internal/models"
)

const (
	OutcomeRecommended    = "recommended"
	OutcomeNoEligibleMenu = "no_eligible_menu"
)

// CatalogProvider returns the catalog in service. *catalog.Holder implements it.
type CatalogProvider interface {
	Current() *catalog.Store
}

// Engine answers recommendation and history requests. It holds no per-request state.
type Engine struct {
	catalog  CatalogProvider
	rules    *Rules
	filter   *Filter
	selector *Selector
	history  history.Store
	obs      *observability.Observability
	logger   logger.Logger
	now      func() time.Time

	defaultLimit int
	maxLimit     int
}

type Option func(*Engine)

func WithSelector(s *Selector) Option {
	return func(e *Engine) { e.selector = s }
}

// WithStageObserver reports every executed filter stage to observer.
func WithStageObserver(observer StageObserver) Option {
	return func(e *Engine) { e.filter = NewFilter(e.rules, observer) }
}

func WithObservability(obs *observability.Observability) Option {
	return func(e *Engine) { e.obs = obs }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHistoryLimits sets the default and maximum number of history records returned.
func WithHistoryLimits(def, max int) Option {
	return func(e *Engine) {
		if def > 0 {
			e.defaultLimit = def
		}
		if max > 0 {
			e.maxLimit = max
		}
	}
}

func NewEngine(catalog CatalogProvider, rules *Rules, store history.Store, log logger.Logger, opts ...Option) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	e := &Engine{
		catalog:      catalog,
		rules:        rules,
		history:      store,
		logger:       log.WithFields(map[string]interface{}{"component": "recommend"}),
		now:          time.Now,
		defaultLimit: history.DefaultLimit,
		maxLimit:     history.MaxLimit,
	}
	e.filter = NewFilter(rules, nil)
	for _, opt := range opts {
		opt(e)
	}
	if e.selector == nil {
		e.selector = NewSelector()
	}
	return e
}

func (e *Engine) Rules() *Rules { return e.rules }

// Recommend filters, weights and draws one menu for req. A request that no
// menu satisfies yields a result with NoEligibleMenu set and a nil error; the
// only error is the context's.
func (e *Engine) Recommend(ctx context.Context, req models.RecommendationRequest) (models.RecommendationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.RecommendationResult{}, err
	}

	if len(req.Lenient) > 0 {
		for _, field := range req.Lenient {
			metrics.RecommendationLenientFallbacks.WithLabelValues(field).Inc()
		}
		e.logger.Info("permissive defaults applied", map[string]interface{}{
			"userId":  req.UserID,
			"lenient": strings.Join(req.Lenient, ","),
			"budget":  req.BudgetBand,
			"hunger":  req.HungerLevel,
			"drink":   req.DrinkPreference,
		})
	}

	var source RegionSource = emptyCatalog{}
	if store := e.catalog.Current(); store != nil {
		source = store
	}

	eligible, exhausted := e.filter.Apply(ctx, source, req)
	if exhausted != nil {
		return e.noEligible(ctx, req, exhausted, 0), nil
	}

	candidates := make([]Candidate, len(eligible))
	for i, item := range eligible {
		candidates[i] = Candidate{Item: item, Weight: e.rules.Weigh(item, req)}
	}
	idx := e.selector.Pick(candidates)
	if idx < 0 {
		return e.noEligible(ctx, req, noEligible(models.StageWeighting), len(eligible)), nil
	}
	chosen := candidates[idx]

	if err := ctx.Err(); err != nil {
		return models.RecommendationResult{}, err
	}

	result := models.RecommendationResult{
		Recommendation: &models.Recommendation{
			MenuID:       chosen.Item.MenuID,
			RestaurantID: chosen.Item.RestaurantID,
			MenuName:     chosen.Item.MenuName,
			PlaceName:    chosen.Item.PlaceName,
			Price:        chosen.Item.Price,
			Address:      chosen.Item.Address,
			URL:          chosen.Item.URL,
			Distance:     models.WalkingDistanceLabel,
			Weight:       chosen.Weight,
		},
		EligibleCount: len(eligible),
	}

	if rec, ok := e.recordHistory(ctx, req.UserID, chosen.Item); ok {
		result.HistoryRecorded = true
		result.HistoryID = rec.ID
	}

	metrics.RecommendationsTotal.WithLabelValues(OutcomeRecommended, "").Inc()
	metrics.RecommendationSelectedWeight.Observe(float64(chosen.Weight))
	e.obs.RecordRecommendation(ctx, OutcomeRecommended, "")

	e.logger.Info("menu recommended", map[string]interface{}{
		"userId":          req.UserID,
		"region":          req.Region,
		"menuId":          chosen.Item.MenuID,
		"weight":          chosen.Weight,
		"eligible":        len(eligible),
		"historyRecorded": result.HistoryRecorded,
	})

	return result, nil
}

func (e *Engine) noEligible(ctx context.Context, req models.RecommendationRequest, exhausted *models.NoEligibleMenu, eligible int) models.RecommendationResult {
	metrics.RecommendationsTotal.WithLabelValues(OutcomeNoEligibleMenu, string(exhausted.Stage)).Inc()
	e.obs.RecordRecommendation(ctx, OutcomeNoEligibleMenu, string(exhausted.Stage))

	e.logger.Info("no eligible menu", map[string]interface{}{
		"userId": req.UserID,
		"region": req.Region,
		"stage":  string(exhausted.Stage),
	})

	return models.RecommendationResult{NoEligibleMenu: exhausted, EligibleCount: eligible}
}

// recordHistory appends the outcome. Failures are logged and counted, never returned.
func (e *Engine) recordHistory(ctx context.Context, userID string, item models.MenuItem) (models.HistoryRecord, bool) {
	if e.history == nil {
		return models.HistoryRecord{}, false
	}

	rec, err := e.history.Record(ctx, userID, item, e.now())
	if err != nil {
		if _, ok := errors.AsStandardError(err); !ok {
			err = errors.NewHistoryPersistenceError(e.history.Backend(), err)
		}
		metrics.HistoryPersistenceFailures.WithLabelValues(e.history.Backend()).Inc()
		e.logger.Error("history append failed", map[string]interface{}{
			"errorCode": string(errors.ErrCodeHistoryPersistenceFailed),
			"backend":   e.history.Backend(),
			"userId":    userID,
			"menuId":    item.MenuID,
			"error":     err.Error(),
		})
		return models.HistoryRecord{}, false
	}
	return rec, true
}

// GetHistory returns past recommendations newest first.
func (e *Engine) GetHistory(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryRecord, error) {
	if e.history == nil {
		return nil, errors.NewHistoryQueryFailedError("none", fmt.Errorf("history store not configured"))
	}
	filter.Limit = history.ClampLimit(filter.Limit, e.defaultLimit, e.maxLimit)

	records, err := e.history.History(ctx, filter)
	if err != nil {
		if _, ok := errors.AsStandardError(err); !ok {
			err = errors.NewHistoryQueryFailedError(e.history.Backend(), err)
		}
		return nil, err
	}
	return records, nil
}

type emptyCatalog struct{}

func (emptyCatalog) ItemsInRegion(string) []models.MenuItem { return nil }
