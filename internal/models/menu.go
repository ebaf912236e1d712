// internal/models/menu.go
package models

import (
	"encoding/json"
	"sort"
)

// MenuItem is one priced menu entry of a restaurant. Items are never mutated after the catalog is loaded.
type MenuItem struct {
	MenuID       int64     `json:"menuId"`
	RestaurantID int64     `json:"restaurantId"`
	PlaceName    string    `json:"placeName"`
	MenuName     string    `json:"menuName"`
	Price        int       `json:"price"`
	Region       string    `json:"region"`
	Address      string    `json:"address"`
	URL          string    `json:"url"`
	Allergens    StringSet `json:"allergens"`
}

// StringSet is an unordered set of strings. The zero value is an empty set.
type StringSet map[string]struct{}

func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Intersects reports whether s and other share at least one element.
func (s StringSet) Intersects(other StringSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for v := range small {
		if large.Has(v) {
			return true
		}
	}
	return false
}

// Slice returns the elements sorted.
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}
