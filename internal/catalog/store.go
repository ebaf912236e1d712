// Package catalog loads the menu catalog and serves read-only region lookups.
package catalog

import (
	"sort"
	"sync/atomic"
	"time"

	"menu-recommender/internal/models"
)

// Store is an immutable, indexed menu catalog. It is safe for concurrent use without locking.
type Store struct {
	items    []models.MenuItem
	byRegion map[string][]models.MenuItem
	source   string
	loadedAt time.Time
}

// NewStore indexes items by region. The caller must not modify items afterwards.
func NewStore(source string, items []models.MenuItem) *Store {
	byRegion := make(map[string][]models.MenuItem)
	for _, item := range items {
		byRegion[item.Region] = append(byRegion[item.Region], item)
	}
	return &Store{
		items:    items,
		byRegion: byRegion,
		source:   source,
		loadedAt: time.Now().UTC(),
	}
}

// ItemsInRegion returns a copy of the items whose normalized region equals region exactly.
func (s *Store) ItemsInRegion(region string) []models.MenuItem {
	items := s.byRegion[region]
	out := make([]models.MenuItem, len(items))
	copy(out, items)
	return out
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) Source() string { return s.source }

func (s *Store) LoadedAt() time.Time { return s.loadedAt }

// Regions returns the distinct regions, sorted.
func (s *Store) Regions() []string {
	out := make([]string, 0, len(s.byRegion))
	for region := range s.byRegion {
		out = append(out, region)
	}
	sort.Strings(out)
	return out
}

// Holder publishes the current Store. A reload swaps in a new Store; published Stores are never modified.
type Holder struct {
	current atomic.Pointer[Store]
}

func NewHolder(initial *Store) *Holder {
	h := &Holder{}
	h.current.Store(initial)
	return h
}

// Current returns the Store in service, or nil before the first load.
func (h *Holder) Current() *Store {
	return h.current.Load()
}

// Swap installs next and returns the previous Store.
func (h *Holder) Swap(next *Store) *Store {
	return h.current.Swap(next)
}
