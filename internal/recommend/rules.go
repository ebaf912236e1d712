// Package recommend filters the catalog for a request, weights the survivors
// and draws one of them.
package recommend

import (
	"math"
	"strings"

	"menu-recommender/internal/common/config"
	"menu-recommender/internal/models"
)

// BudgetRange is an inclusive price range in won.
type BudgetRange struct {
	Min int
	Max int
}

func (b BudgetRange) Contains(price int) bool {
	return price >= b.Min && price <= b.Max
}

// FullRange admits every price. Unrecognized bands fall back to it.
var FullRange = BudgetRange{Min: 0, Max: math.MaxInt}

type budgetBand struct {
	name    string
	aliases []string
	rng     BudgetRange
}

var budgetBands = []budgetBand{
	{name: "<10k", aliases: []string{"1만원 미만"}, rng: BudgetRange{0, 10000}},
	{name: "10k-20k", aliases: []string{"1~2만원"}, rng: BudgetRange{10000, 20000}},
	{name: "20k-30k", aliases: []string{"2~3만원"}, rng: BudgetRange{20000, 30000}},
	{name: "30k-40k", aliases: []string{"3~4만원"}, rng: BudgetRange{30000, 40000}},
	{name: "40k+", aliases: []string{"4만원 이상"}, rng: BudgetRange{40000, math.MaxInt}},
}

// LookupBudget resolves a band name or alias. ok is false for unknown bands,
// in which case FullRange is returned.
func LookupBudget(band string) (BudgetRange, bool) {
	band = strings.TrimSpace(band)
	for _, b := range budgetBands {
		if b.name == band {
			return b.rng, true
		}
		for _, alias := range b.aliases {
			if alias == band {
				return b.rng, true
			}
		}
	}
	return FullRange, false
}

func defaultHunger() map[string][]string {
	high := []string{"국밥", "덮밥", "돈까스", "정식", "곱빼기", "세트", "찜", "탕수육", "비빔밥", "고기"}
	normal := []string{"백반", "김밥", "볶음밥", "국수", "칼국수"}
	low := []string{"샐러드", "샌드위치", "토스트", "죽", "만두"}
	return map[string][]string{
		"많이": high, "high": high,
		"보통": normal, "normal": normal,
		"조금": low, "low": low,
	}
}

func defaultDrinks() map[string][]string {
	drinks := map[string][]string{
		"소주":  {"찌개", "탕", "전골", "곱창", "삼겹살", "족발", "보쌈"},
		"맥주":  {"치킨", "피자", "튀김", "감자", "탕수육", "소시지"},
		"막걸리": {"전", "파전", "두부", "보쌈", "도토리묵"},
		"와인":  {"파스타", "스테이크", "치즈", "샐러드"},
		"없음":  {},
	}
	drinks[models.DrinkNone] = []string{}
	return drinks
}

func defaultDiseases() map[string][]string {
	return map[string][]string{
		"당뇨": {
			"설탕", "시럽", "케이크", "디저트", "와플", "라떼", "빙수", "단호박죽", "초코", "빵",
			"젤리", "쿠키", "꿀", "크림", "밀크티", "마카롱", "호떡", "토스트", "핫케이크", "피넛버터",
			"롤케이크", "카라멜", "팥빙수", "생크림", "슈크림", "아이스크림", "팬케이크", "프라푸치노",
			"스무디", "주스", "쥬스", "양념", "허니",
		},
		"고혈압": {
			"짠", "소금", "라면", "찌개", "간장", "국물", "짬뽕", "된장", "김치찌개", "불고기",
			"짜장", "제육", "곰탕", "육개장", "감자탕", "순대국", "돼지국밥", "해장국", "삼겹살",
			"닭갈비", "마라탕", "간장계란밥", "쌈장", "어묵탕", "우동", "짬짜면", "비빔면",
			"김치볶음밥", "소세지볶음", "햄", "베이컨",
		},
		"저혈압": {
			"카페인", "커피", "아메리카노", "에스프레소", "콜드브루", "카푸치노", "더치커피",
			"마끼아또", "프라푸치노", "카페모카", "롱블랙", "브루드커피", "플랫화이트", "라떼", "아포가토",
		},
		"신장질환": {
			"나트륨", "짠", "국물", "젓갈", "김치", "명란", "어묵", "햄", "소세지", "쏘세지",
			"가공육", "베이컨", "스팸", "멸치볶음", "장조림", "된장국", "김치전", "생선젓", "곱창", "순대",
		},
	}
}

// Rules holds the keyword tables. It is read-only once built.
type Rules struct {
	hunger   map[string][]string
	drinks   map[string][]string
	diseases map[string][]string
}

func DefaultRules() *Rules {
	return &Rules{
		hunger:   defaultHunger(),
		drinks:   defaultDrinks(),
		diseases: defaultDiseases(),
	}
}

// RulesFromConfig replaces each default table that cfg sets.
func RulesFromConfig(cfg config.RulesConfig) *Rules {
	r := DefaultRules()
	if cfg.Hunger != nil {
		r.hunger = cfg.Hunger
	}
	if cfg.Drinks != nil {
		r.drinks = make(map[string][]string, len(cfg.Drinks)+1)
		for drink, kw := range cfg.Drinks {
			r.drinks[drink] = kw
		}
		if _, ok := r.drinks[models.DrinkNone]; !ok {
			r.drinks[models.DrinkNone] = nil
		}
	}
	if cfg.Diseases != nil {
		r.diseases = cfg.Diseases
	}
	return r
}

// HungerKeywords returns the keywords of a hunger level; ok is false for unknown levels.
func (r *Rules) HungerKeywords(level string) ([]string, bool) {
	kw, ok := r.hunger[level]
	return kw, ok
}

// DrinkKeywords returns the keywords paired with a drink; ok is false for unknown drinks.
func (r *Rules) DrinkKeywords(drink string) ([]string, bool) {
	kw, ok := r.drinks[drink]
	return kw, ok
}

// DangerKeywords unions the keywords of every known disease. Unknown diseases add nothing.
func (r *Rules) DangerKeywords(diseases models.StringSet) []string {
	var out []string
	for _, d := range diseases.Slice() {
		out = append(out, r.diseases[d]...)
	}
	return out
}

// KnownDisease reports whether the disease table has an entry for d.
func (r *Rules) KnownDisease(d string) bool {
	_, ok := r.diseases[d]
	return ok
}

// containsAny reports whether name contains any keyword as a literal substring.
func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
