package domain

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/utafrali/discovery/pkg/errors"
	"github.com/utafrali/discovery/pkg/pagination"
)

// MinQueryLength is the minimum number of characters in a trimmed search query.
const MinQueryLength = 2

// Kind selects which result groups a search returns.
type Kind string

const (
	KindAll     Kind = "all"
	KindItems   Kind = "items"
	KindVendors Kind = "vendors"
)

// IsValid reports whether k is a known search kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindAll, KindItems, KindVendors:
		return true
	}
	return false
}

// IncludesItems reports whether a search of this kind runs the item lookup.
func (k Kind) IncludesItems() bool { return k == KindAll || k == KindItems }

// IncludesVendors reports whether a search of this kind runs the vendor lookup.
func (k Kind) IncludesVendors() bool { return k == KindAll || k == KindVendors }

// Sort options for search results.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortRecent    Sort = "recent"
)

// ValidSortOptions returns the list of valid sort options.
func ValidSortOptions() []Sort {
	return []Sort{SortRelevance, SortPriceAsc, SortPriceDesc, SortRecent}
}

// IsValid checks whether s is a valid sort option.
func (s Sort) IsValid() bool {
	for _, v := range ValidSortOptions() {
		if v == s {
			return true
		}
	}
	return false
}

// Filters narrows the item lookup. A nil pointer means the filter is not
// applied. Prices are in minor currency units.
type Filters struct {
	CategoryID *string `json:"category_id,omitempty"`
	PriceMin   *int64  `json:"price_min,omitempty"`
	PriceMax   *int64  `json:"price_max,omitempty"`
	PromoOnly  bool    `json:"promo_only,omitempty"`
}

// Validate checks the filter ranges.
func (f Filters) Validate() error {
	if f.PriceMin != nil && *f.PriceMin < 0 {
		return apperrors.InvalidParameter("priceMin", "must not be negative")
	}
	if f.PriceMax != nil && *f.PriceMax < 0 {
		return apperrors.InvalidParameter("priceMax", "must not be negative")
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return apperrors.InvalidParameter("priceMin", "must not exceed priceMax")
	}
	return nil
}

// SearchQuery holds all parameters for a search request.
type SearchQuery struct {
	Text    string
	Kind    Kind
	Filters Filters
	Sort    Sort
	Page    int
	Limit   int
}

// Prepare trims the text, fills in defaults, clamps paging and validates the
// query. It must succeed before any lookup runs.
func (q *SearchQuery) Prepare() error {
	q.Text = strings.TrimSpace(q.Text)
	if utf8.RuneCountInString(q.Text) < MinQueryLength {
		return apperrors.QueryTooShort(MinQueryLength)
	}

	if q.Kind == "" {
		q.Kind = KindAll
	}
	if !q.Kind.IsValid() {
		return apperrors.InvalidParameter("type", "must be one of: all, items, vendors")
	}
	if q.Sort == "" {
		q.Sort = SortRelevance
	}
	if !q.Sort.IsValid() {
		return apperrors.InvalidParameter("sort", "must be one of: relevance, price_asc, price_desc, recent")
	}
	if err := q.Filters.Validate(); err != nil {
		return err
	}

	p := pagination.New(q.Page, q.Limit, pagination.DefaultLimit, pagination.MaxLimit)
	q.Page, q.Limit = p.Page, p.Limit
	return nil
}

// Offset is the number of rows each lookup skips for the current page.
func (q *SearchQuery) Offset() int {
	return pagination.New(q.Page, q.Limit, pagination.DefaultLimit, pagination.MaxLimit).Offset
}

// ShortDescriptionLength is the rune length at which summaries cut descriptions.
const ShortDescriptionLength = 100

// ShortDescription truncates s to ShortDescriptionLength runes, appending an
// ellipsis when anything was cut.
func ShortDescription(s string) string {
	if utf8.RuneCountInString(s) <= ShortDescriptionLength {
		return s
	}
	r := []rune(s)
	return string(r[:ShortDescriptionLength]) + "..."
}

// ItemSummary is the search-result projection of a catalog item.
type ItemSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	ShortDescription string `json:"short_description"`
	Price            int64  `json:"price"`
	PromoPrice       *int64 `json:"promo_price,omitempty"`
	OnPromo          bool   `json:"on_promo"`
	Stock            int    `json:"stock"`
	Image            string `json:"image,omitempty"`
	VendorID         string `json:"vendor_id"`
	VendorName       string `json:"vendor_name"`
	VendorLogo       string `json:"vendor_logo,omitempty"`
	CategoryID       string `json:"category_id,omitempty"`
	CategoryName     string `json:"category_name,omitempty"`
}

// VendorSummary is the search-result projection of a vendor.
type VendorSummary struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	ShortDescription string  `json:"short_description"`
	Category         string  `json:"category,omitempty"`
	Logo             string  `json:"logo,omitempty"`
	Rating           float64 `json:"rating"`
	ReviewCount      int     `json:"review_count"`
	ActiveItemCount  int     `json:"active_item_count"`
}

// SearchResult is the combined response of a search. Items and Vendors are
// nil, and omitted from JSON, when the kind did not request them.
type SearchResult struct {
	Query        string          `json:"query"`
	Kind         Kind            `json:"type"`
	Filters      Filters         `json:"filters"`
	Sort         Sort            `json:"sort"`
	Items        []ItemSummary   `json:"items,omitzero"`
	Vendors      []VendorSummary `json:"vendors,omitzero"`
	ItemsCount   int             `json:"items_count"`
	VendorsCount int             `json:"vendors_count"`
	TotalCount   int             `json:"total_count"`
	Pagination   Pagination      `json:"pagination"`
}

// Pagination describes the page a search result covers.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination computes the page descriptor for a search. Single-kind
// searches page over that kind's count; combined searches page over the
// larger of the two counts, since each lookup pages independently.
func NewPagination(kind Kind, page, limit, itemsCount, vendorsCount int) Pagination {
	var total int
	switch kind {
	case KindItems:
		total = itemsCount
	case KindVendors:
		total = vendorsCount
	default:
		total = max(itemsCount, vendorsCount)
	}

	totalPages := pagination.TotalPages(total, limit)
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
