package recommend

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"menu-recommender/internal/models"
)

const (
	baseWeight  = 1
	bonusWeight = 2

	// SoloPriceLimit is the highest price that earns the solo bonus.
	SoloPriceLimit = 10000
)

// Weigh scores one eligible item for req.
func (r *Rules) Weigh(item models.MenuItem, req models.RecommendationRequest) int {
	w := baseWeight
	if req.DiningMode == models.DiningSolo && item.Price <= SoloPriceLimit {
		w += bonusWeight
	}
	if kw, ok := r.HungerKeywords(req.HungerLevel); ok && containsAny(item.MenuName, kw) {
		w += bonusWeight
	}
	if kw, ok := r.DrinkKeywords(req.DrinkPreference); ok && containsAny(item.MenuName, kw) {
		w += bonusWeight
	}
	return w
}

// Candidate is an eligible item with its weight.
type Candidate struct {
	Item   models.MenuItem
	Weight int
}

// Selector draws a candidate with probability proportional to its weight.
// It is safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

type SelectorOption func(*Selector)

// WithSeed makes the draw sequence reproducible.
func WithSeed(seed int64) SelectorOption {
	return func(s *Selector) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // not security sensitive
	}
}

func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pick returns the index of the drawn candidate, or -1 when the list is empty
// or every weight is zero. Item i is drawn with probability w_i / Σw.
func (s *Selector) Pick(candidates []Candidate) int {
	cumulative := make([]int, len(candidates))
	total := 0
	for i, c := range candidates {
		if c.Weight > 0 {
			total += c.Weight
		}
		cumulative[i] = total
	}
	if total == 0 {
		return -1
	}

	s.mu.Lock()
	r := s.rng.Intn(total)
	s.mu.Unlock()

	// first index whose cumulative weight exceeds r
	return sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > r })
}
