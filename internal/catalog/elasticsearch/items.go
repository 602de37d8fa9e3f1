package elasticsearch

import (
	"context"
	"fmt"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/internal/domain"
)

// itemDocument is the indexed form of an item. EffectivePrice is stored so
// price filters and sorts can run on a single field.
type itemDocument struct {
	catalog.Item
	EffectivePrice int64 `json:"effective_price"`
}

// IndexItems adds or replaces items in the items index.
func (s *Store) IndexItems(ctx context.Context, items ...catalog.Item) error {
	ids := make([]string, len(items))
	docs := make([]any, len(items))
	for i := range items {
		ids[i] = items[i].ID
		docs[i] = itemDocument{Item: items[i], EffectivePrice: items[i].EffectivePrice()}
	}
	if err := s.bulkIndex(ctx, s.itemsIndex, ids, docs); err != nil {
		return fmt.Errorf("elasticsearch index items: %w", err)
	}
	return nil
}

// LookupItems runs a case-insensitive substring match over name, description
// and tags.
func (s *Store) LookupItems(ctx context.Context, q catalog.ItemQuery) ([]catalog.Item, int, error) {
	if len(q.VendorIDs) == 0 {
		return []catalog.Item{}, 0, nil
	}

	var resp esHits[catalog.Item]
	if err := s.search(ctx, "elasticsearch lookup items", s.itemsIndex, buildItemQuery(q), &resp); err != nil {
		return nil, 0, err
	}

	items := make([]catalog.Item, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		items = append(items, hit.Source)
	}
	return items, resp.Hits.Total.Value, nil
}

// SuggestItems returns active items whose name starts with prefix.
func (s *Store) SuggestItems(ctx context.Context, vendorIDs []string, prefix string, limit int) ([]catalog.Item, error) {
	if len(vendorIDs) == 0 || limit <= 0 {
		return []catalog.Item{}, nil
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					term("status", catalog.ItemStatusActive),
					terms("vendor_id", vendorIDs),
					prefixQuery("name.lower", prefix),
				},
			},
		},
		"size": limit,
		"sort": []any{
			map[string]any{"name.keyword": "asc"},
			map[string]any{"id": "asc"},
		},
	}

	var resp esHits[catalog.Item]
	if err := s.search(ctx, "elasticsearch suggest items", s.itemsIndex, body, &resp); err != nil {
		return nil, err
	}

	items := make([]catalog.Item, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		items = append(items, hit.Source)
	}
	return items, nil
}

// CountActiveItems counts active items per vendor with a terms aggregation.
func (s *Store) CountActiveItems(ctx context.Context, vendorIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(vendorIDs))
	if len(vendorIDs) == 0 {
		return counts, nil
	}

	body := map[string]any{
		"size": 0,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					term("status", catalog.ItemStatusActive),
					terms("vendor_id", vendorIDs),
				},
			},
		},
		"aggs": map[string]any{
			"by_vendor": map[string]any{
				"terms": map[string]any{"field": "vendor_id", "size": len(vendorIDs)},
			},
		},
	}

	var resp struct {
		Aggregations struct {
			ByVendor struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int    `json:"doc_count"`
				} `json:"buckets"`
			} `json:"by_vendor"`
		} `json:"aggregations"`
	}
	if err := s.search(ctx, "elasticsearch count items", s.itemsIndex, body, &resp); err != nil {
		return nil, err
	}

	for _, b := range resp.Aggregations.ByVendor.Buckets {
		counts[b.Key] = b.DocCount
	}
	return counts, nil
}

// buildItemQuery constructs the item search DSL.
func buildItemQuery(q catalog.ItemQuery) map[string]any {
	filters := []any{
		term("status", catalog.ItemStatusActive),
		terms("vendor_id", q.VendorIDs),
	}

	if q.Text != "" {
		pattern := containsPattern(q.Text)
		filters = append(filters, map[string]any{
			"bool": map[string]any{
				"should": []any{
					wildcardQuery("name.lower", pattern),
					wildcardQuery("description.lower", pattern),
					wildcardQuery("tags", pattern),
				},
				"minimum_should_match": 1,
			},
		})
	}

	if q.Filters.CategoryID != nil {
		filters = append(filters, term("category_id", *q.Filters.CategoryID))
	}

	if q.Filters.PriceMin != nil || q.Filters.PriceMax != nil {
		rangeFilter := map[string]any{}
		if q.Filters.PriceMin != nil {
			rangeFilter["gte"] = *q.Filters.PriceMin
		}
		if q.Filters.PriceMax != nil {
			rangeFilter["lte"] = *q.Filters.PriceMax
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"effective_price": rangeFilter},
		})
	}

	if q.Filters.PromoOnly {
		filters = append(filters, term("on_promo", true))
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"filter": filters},
		},
		"from":             q.Offset,
		"size":             q.Limit,
		"sort":             buildItemSort(q.Sort),
		"track_total_hits": true,
	}
}

// buildItemSort orders by effective price for the price sorts and newest
// first otherwise.
func buildItemSort(sort domain.Sort) []any {
	newest := []any{
		map[string]any{"created_at": "desc"},
		map[string]any{"id": "asc"},
	}

	switch sort {
	case domain.SortPriceAsc:
		return append([]any{map[string]any{"effective_price": "asc"}}, newest...)
	case domain.SortPriceDesc:
		return append([]any{map[string]any{"effective_price": "desc"}}, newest...)
	default:
		return newest
	}
}

func wildcardQuery(field, pattern string) map[string]any {
	return map[string]any{
		"wildcard": map[string]any{
			field: map[string]any{"value": pattern, "case_insensitive": true},
		},
	}
}

func prefixQuery(field, prefix string) map[string]any {
	return map[string]any{
		"prefix": map[string]any{
			field: map[string]any{"value": prefix, "case_insensitive": true},
		},
	}
}
