// Package memory provides an in-process catalog used for local development
// and tests. It implements every catalog contract over maps guarded by a
// sync.RWMutex.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/internal/domain"
)

// Store is an in-memory catalog.
type Store struct {
	mu      sync.RWMutex
	items   map[string]catalog.Item
	vendors map[string]catalog.Vendor
}

var (
	_ catalog.EligibilityResolver = (*Store)(nil)
	_ catalog.ItemLookup          = (*Store)(nil)
	_ catalog.VendorLookup        = (*Store)(nil)
)

// New creates an empty in-memory catalog.
func New() *Store {
	return &Store{
		items:   make(map[string]catalog.Item),
		vendors: make(map[string]catalog.Vendor),
	}
}

// PutItems adds or replaces items by id.
func (s *Store) PutItems(items ...catalog.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		s.items[it.ID] = it
	}
}

// PutVendors adds or replaces vendors by id.
func (s *Store) PutVendors(vendors ...catalog.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vendors {
		s.vendors[v.ID] = v
	}
}

// ResolveEligibleVendorIDs returns the ids of approved vendors, sorted.
func (s *Store) ResolveEligibleVendorIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.vendors))
	for id, v := range s.vendors {
		if v.Status == catalog.VendorStatusApproved {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// LookupItems matches the query text as a case-insensitive substring of the
// name, description or any tag.
func (s *Store) LookupItems(_ context.Context, q catalog.ItemQuery) ([]catalog.Item, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eligible := toSet(q.VendorIDs)
	needle := strings.ToLower(q.Text)

	matched := make([]catalog.Item, 0)
	for _, it := range s.items {
		if it.Status != catalog.ItemStatusActive {
			continue
		}
		if _, ok := eligible[it.VendorID]; !ok {
			continue
		}
		if !itemMatchesText(it, needle) || !itemMatchesFilters(it, q.Filters) {
			continue
		}
		matched = append(matched, it)
	}

	sortItems(matched, q.Sort)
	return page(matched, q.Offset, q.Limit), len(matched), nil
}

// SuggestItems returns active items whose name starts with prefix, by name.
func (s *Store) SuggestItems(_ context.Context, vendorIDs []string, prefix string, limit int) ([]catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eligible := toSet(vendorIDs)
	prefix = strings.ToLower(prefix)

	matched := make([]catalog.Item, 0)
	for _, it := range s.items {
		if it.Status != catalog.ItemStatusActive {
			continue
		}
		if _, ok := eligible[it.VendorID]; !ok {
			continue
		}
		if strings.HasPrefix(strings.ToLower(it.Name), prefix) {
			matched = append(matched, it)
		}
	}

	slices.SortFunc(matched, func(a, b catalog.Item) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return page(matched, 0, limit), nil
}

// CountActiveItems counts active items per vendor in a single pass.
func (s *Store) CountActiveItems(_ context.Context, vendorIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := toSet(vendorIDs)
	counts := make(map[string]int, len(vendorIDs))
	for _, it := range s.items {
		if it.Status != catalog.ItemStatusActive {
			continue
		}
		if _, ok := wanted[it.VendorID]; ok {
			counts[it.VendorID]++
		}
	}
	return counts, nil
}

// LookupVendors matches the query text as a case-insensitive substring of the
// name, description or category. Results are newest first.
func (s *Store) LookupVendors(_ context.Context, q catalog.VendorQuery) ([]catalog.Vendor, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eligible := toSet(q.VendorIDs)
	needle := strings.ToLower(q.Text)

	matched := make([]catalog.Vendor, 0)
	for id, v := range s.vendors {
		if _, ok := eligible[id]; !ok {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(v.Name), needle) &&
			!strings.Contains(strings.ToLower(v.Description), needle) &&
			!strings.Contains(strings.ToLower(v.Category), needle) {
			continue
		}
		matched = append(matched, v)
	}

	slices.SortFunc(matched, func(a, b catalog.Vendor) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return page(matched, q.Offset, q.Limit), len(matched), nil
}

// SuggestVendors returns eligible vendors whose name starts with prefix, by name.
func (s *Store) SuggestVendors(_ context.Context, vendorIDs []string, prefix string, limit int) ([]catalog.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eligible := toSet(vendorIDs)
	prefix = strings.ToLower(prefix)

	matched := make([]catalog.Vendor, 0)
	for id, v := range s.vendors {
		if _, ok := eligible[id]; !ok {
			continue
		}
		if strings.HasPrefix(strings.ToLower(v.Name), prefix) {
			matched = append(matched, v)
		}
	}

	slices.SortFunc(matched, func(a, b catalog.Vendor) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return page(matched, 0, limit), nil
}

func itemMatchesText(it catalog.Item, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(it.Name), needle) ||
		strings.Contains(strings.ToLower(it.Description), needle) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func itemMatchesFilters(it catalog.Item, f domain.Filters) bool {
	if f.CategoryID != nil && it.CategoryID != *f.CategoryID {
		return false
	}
	price := it.EffectivePrice()
	if f.PriceMin != nil && price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && price > *f.PriceMax {
		return false
	}
	if f.PromoOnly && !it.OnPromo {
		return false
	}
	return true
}

// sortItems orders by effective price for the price sorts and newest first
// otherwise. Relevance has no separate scoring and shares the recency order.
func sortItems(items []catalog.Item, sort domain.Sort) {
	newest := func(a, b catalog.Item) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	}

	switch sort {
	case domain.SortPriceAsc:
		slices.SortFunc(items, func(a, b catalog.Item) int {
			return cmp.Or(cmp.Compare(a.EffectivePrice(), b.EffectivePrice()), newest(a, b))
		})
	case domain.SortPriceDesc:
		slices.SortFunc(items, func(a, b catalog.Item) int {
			return cmp.Or(cmp.Compare(b.EffectivePrice(), a.EffectivePrice()), newest(a, b))
		})
	default:
		slices.SortFunc(items, newest)
	}
}

func page[T any](s []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s) {
		offset = len(s)
	}
	end := len(s)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return s[offset:end]
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
