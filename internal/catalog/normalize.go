package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"menu-recommender/internal/models"
)

// Dataset columns. menu_id and restaurant_id are mandatory.
const (
	ColPlaceName    = "place_name"
	ColMenuName     = "menu_name"
	ColMenuPrice    = "menu_price"
	ColRegion       = "region"
	ColAddress      = "address"
	ColURL          = "url"
	ColAllergy      = "allergy"
	ColMenuID       = "menu_id"
	ColRestaurantID = "restaurant_id"
)

// RequiredColumns must be present in every tabular source; a dataset without them is rejected at load.
var RequiredColumns = []string{
	ColPlaceName, ColMenuName, ColMenuPrice, ColRegion, ColAddress, ColURL, ColAllergy, ColMenuID, ColRestaurantID,
}

// rawRecord is one source row before normalization, keyed by column name.
type rawRecord map[string]string

// ParsePrice accepts "12,000", " 9000 " and "9000.0". Empty, negative, non-finite or
// out of range prices are rejected.
func ParsePrice(raw string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative price %q", raw)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	if f >= float64(math.MaxInt) {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return int(f), nil
}

// ParseAllergens splits a comma-delimited allergen field into a set. Blank entries are dropped.
func ParseAllergens(raw string) models.StringSet {
	set := models.NewStringSet()
	for _, part := range strings.Split(raw, ",") {
		if a := strings.TrimSpace(part); a != "" {
			set[a] = struct{}{}
		}
	}
	return set
}

func parseID(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty")
	}
	if id, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return id, nil
	}
	// pandas writes integer columns containing NaN as floats
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int64(f), nil
}

// toMenuItem normalizes one row. row is used only in error messages.
func toMenuItem(rec rawRecord, row string) (models.MenuItem, error) {
	menuID, err := parseID(rec[ColMenuID])
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("%s: %s %v", row, ColMenuID, err)
	}
	restaurantID, err := parseID(rec[ColRestaurantID])
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("%s: %s %v", row, ColRestaurantID, err)
	}
	price, err := ParsePrice(rec[ColMenuPrice])
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("%s: %s %v", row, ColMenuPrice, err)
	}

	return models.MenuItem{
		MenuID:       menuID,
		RestaurantID: restaurantID,
		PlaceName:    strings.TrimSpace(rec[ColPlaceName]),
		MenuName:     strings.TrimSpace(rec[ColMenuName]),
		Price:        price,
		Region:       strings.TrimSpace(rec[ColRegion]),
		Address:      strings.TrimSpace(rec[ColAddress]),
		URL:          strings.TrimSpace(rec[ColURL]),
		Allergens:    ParseAllergens(rec[ColAllergy]),
	}, nil
}

// missingColumns returns the entries of required absent from present.
func missingColumns(present map[string]bool, required []string) []string {
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
