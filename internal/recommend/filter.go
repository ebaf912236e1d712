package recommend

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"menu-recommender/internal/common/observability"
	"menu-recommender/internal/models"
)

const tracerName = "menu-recommender/recommend"

var stageMessages = map[models.Stage]string{
	models.StageRegion:    "해당 지역에 메뉴가 없습니다",
	models.StageBudget:    "예산에 맞는 메뉴가 없습니다",
	models.StageAllergy:   "알러지에 맞는 메뉴가 없습니다",
	models.StageDisease:   "건강 상태에 맞는 메뉴가 없습니다",
	models.StageWeighting: "조건에 맞는 메뉴가 없습니다",
}

// StageMessage returns the user-facing message for an exhausted stage.
func StageMessage(stage models.Stage) string {
	return stageMessages[stage]
}

func noEligible(stage models.Stage) *models.NoEligibleMenu {
	return &models.NoEligibleMenu{Stage: stage, Message: StageMessage(stage)}
}

// RegionSource supplies the items of one region. *catalog.Store implements it.
type RegionSource interface {
	ItemsInRegion(region string) []models.MenuItem
}

// StageObserver is called after each stage with the number of surviving items.
type StageObserver func(stage models.Stage, remaining int)

type stage struct {
	name models.Stage
	keep func(models.MenuItem) bool
}

// Filter runs the eligibility stages in their fixed order.
type Filter struct {
	rules    *Rules
	observer StageObserver
}

func NewFilter(rules *Rules, observer StageObserver) *Filter {
	return &Filter{rules: rules, observer: observer}
}

// Apply returns the eligible items, or the first stage that left none.
// Stages after an exhausted one do not run.
func (f *Filter) Apply(ctx context.Context, catalog RegionSource, req models.RecommendationRequest) ([]models.MenuItem, *models.NoEligibleMenu) {
	_, span := observability.StartSpan(ctx, tracerName, "stage.region", attribute.String("region", req.Region))
	items := catalog.ItemsInRegion(req.Region)
	span.SetAttributes(attribute.Int("remaining", len(items)))
	observability.EndSpan(span, nil)
	f.observe(models.StageRegion, len(items))
	if len(items) == 0 {
		return nil, noEligible(models.StageRegion)
	}

	for _, st := range f.stages(req) {
		_, span := observability.StartSpan(ctx, tracerName, "stage."+string(st.name), attribute.Int("candidates", len(items)))
		kept := make([]models.MenuItem, 0, len(items))
		for _, item := range items {
			if st.keep(item) {
				kept = append(kept, item)
			}
		}
		items = kept
		span.SetAttributes(attribute.Int("remaining", len(items)))
		observability.EndSpan(span, nil)

		f.observe(st.name, len(items))
		if len(items) == 0 {
			return nil, noEligible(st.name)
		}
	}

	return items, nil
}

func (f *Filter) stages(req models.RecommendationRequest) []stage {
	budget, _ := LookupBudget(req.BudgetBand)
	danger := f.rules.DangerKeywords(req.Diseases)

	return []stage{
		{
			name: models.StageBudget,
			keep: func(item models.MenuItem) bool { return budget.Contains(item.Price) },
		},
		{
			name: models.StageAllergy,
			keep: func(item models.MenuItem) bool { return !item.Allergens.Intersects(req.Allergies) },
		},
		{
			name: models.StageDisease,
			keep: func(item models.MenuItem) bool { return !containsAny(item.MenuName, danger) },
		},
	}
}

func (f *Filter) observe(stage models.Stage, remaining int) {
	if f.observer != nil {
		f.observer(stage, remaining)
	}
}
