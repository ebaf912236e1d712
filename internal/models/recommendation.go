// internal/models/recommendation.go
package models

// DiningMode distinguishes eating alone from eating in a group.
type DiningMode string

const (
	DiningSolo  DiningMode = "solo"
	DiningGroup DiningMode = "group"
)

// DrinkNone means no drink pairing was requested.
const DrinkNone = "none"

// Stage names the eligibility step that ran out of candidates.
type Stage string

const (
	StageRegion    Stage = "region"
	StageBudget    Stage = "budget"
	StageAllergy   Stage = "allergy"
	StageDisease   Stage = "disease"
	StageWeighting Stage = "weighting"
)

// WalkingDistanceLabel is attached to every recommendation.
const WalkingDistanceLabel = "도보 10분 이내"

// RecommendationRequest is a normalized request. Build it with recommend.Normalize.
type RecommendationRequest struct {
	UserID          string     `json:"userId"`
	Region          string     `json:"region"`
	DiningMode      DiningMode `json:"diningMode"`
	BudgetBand      string     `json:"budgetBand"`
	DrinkPreference string     `json:"drinkPreference"`
	HungerLevel     string     `json:"hungerLevel"`
	Allergies       StringSet  `json:"allergies"`
	Diseases        StringSet  `json:"diseases"`

	// Lenient lists the fields whose unrecognized values were replaced by permissive defaults.
	Lenient []string `json:"lenient,omitempty"`
}

// Recommendation is the populated result of a successful draw.
type Recommendation struct {
	MenuID       int64  `json:"menuId"`
	RestaurantID int64  `json:"restaurantId"`
	MenuName     string `json:"menuName"`
	PlaceName    string `json:"placeName"`
	Price        int    `json:"price"`
	Address      string `json:"address"`
	URL          string `json:"url"`
	Distance     string `json:"distance"`
	Weight       int    `json:"weight"`
}

// NoEligibleMenu is the expected outcome when a stage leaves no candidates.
type NoEligibleMenu struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// RecommendationResult holds exactly one of Recommendation or NoEligibleMenu.
type RecommendationResult struct {
	Recommendation  *Recommendation `json:"recommendation,omitempty"`
	NoEligibleMenu  *NoEligibleMenu `json:"noEligibleMenu,omitempty"`
	HistoryRecorded bool            `json:"historyRecorded"`
	HistoryID       string          `json:"historyId,omitempty"`
	EligibleCount   int             `json:"eligibleCount"`
}

// Eligible reports whether a menu was recommended.
func (r RecommendationResult) Eligible() bool {
	return r.Recommendation != nil
}
