package elasticsearch

import (
	"context"
	"fmt"

	"github.com/utafrali/discovery/internal/catalog"
)

// IndexVendors adds or replaces vendors in the vendors index.
func (s *Store) IndexVendors(ctx context.Context, vendors ...catalog.Vendor) error {
	ids := make([]string, len(vendors))
	docs := make([]any, len(vendors))
	for i := range vendors {
		ids[i] = vendors[i].ID
		docs[i] = vendors[i]
	}
	if err := s.bulkIndex(ctx, s.vendorsIndex, ids, docs); err != nil {
		return fmt.Errorf("elasticsearch index vendors: %w", err)
	}
	return nil
}

// ResolveEligibleVendorIDs returns the ids of approved vendors.
func (s *Store) ResolveEligibleVendorIDs(ctx context.Context) ([]string, error) {
	body := map[string]any{
		"query":   map[string]any{"bool": map[string]any{"filter": []any{term("status", catalog.VendorStatusApproved)}}},
		"size":    maxEligibleVendors,
		"_source": []string{"id"},
		"sort":    []any{map[string]any{"id": "asc"}},
	}

	var resp esHits[struct {
		ID string `json:"id"`
	}]
	if err := s.search(ctx, "elasticsearch eligible vendors", s.vendorsIndex, body, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

// LookupVendors runs a case-insensitive substring match over name,
// description and category, newest first.
func (s *Store) LookupVendors(ctx context.Context, q catalog.VendorQuery) ([]catalog.Vendor, int, error) {
	if len(q.VendorIDs) == 0 {
		return []catalog.Vendor{}, 0, nil
	}

	var resp esHits[catalog.Vendor]
	if err := s.search(ctx, "elasticsearch lookup vendors", s.vendorsIndex, buildVendorQuery(q), &resp); err != nil {
		return nil, 0, err
	}

	vendors := make([]catalog.Vendor, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		vendors = append(vendors, hit.Source)
	}
	return vendors, resp.Hits.Total.Value, nil
}

// SuggestVendors returns eligible vendors whose name starts with prefix.
func (s *Store) SuggestVendors(ctx context.Context, vendorIDs []string, prefix string, limit int) ([]catalog.Vendor, error) {
	if len(vendorIDs) == 0 || limit <= 0 {
		return []catalog.Vendor{}, nil
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					terms("id", vendorIDs),
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

	var resp esHits[catalog.Vendor]
	if err := s.search(ctx, "elasticsearch suggest vendors", s.vendorsIndex, body, &resp); err != nil {
		return nil, err
	}

	vendors := make([]catalog.Vendor, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		vendors = append(vendors, hit.Source)
	}
	return vendors, nil
}

// buildVendorQuery constructs the vendor search DSL.
func buildVendorQuery(q catalog.VendorQuery) map[string]any {
	filters := []any{terms("id", q.VendorIDs)}

	if q.Text != "" {
		pattern := containsPattern(q.Text)
		filters = append(filters, map[string]any{
			"bool": map[string]any{
				"should": []any{
					wildcardQuery("name.lower", pattern),
					wildcardQuery("description.lower", pattern),
					wildcardQuery("category.lower", pattern),
				},
				"minimum_should_match": 1,
			},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"filter": filters},
		},
		"from": q.Offset,
		"size": q.Limit,
		"sort": []any{
			map[string]any{"created_at": "desc"},
			map[string]any{"id": "asc"},
		},
		"track_total_hits": true,
	}
}
