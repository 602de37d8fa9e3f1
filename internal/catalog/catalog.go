// Package catalog defines the read-only contracts the discovery service
// consumes from the marketplace catalog, and the read models they return.
package catalog

import (
	"context"
	"time"

	"github.com/utafrali/discovery/internal/domain"
)

// Item statuses. Only active items are ever returned by a lookup.
const (
	ItemStatusActive   = "active"
	ItemStatusInactive = "inactive"
)

// Vendor statuses. Only approved vendors are eligible.
const (
	VendorStatusApproved = "approved"
	VendorStatusPending  = "pending"
	VendorStatusRejected = "rejected"
)

// Item is a product listed by a vendor.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Price        int64     `json:"price"`
	PromoPrice   *int64    `json:"promo_price,omitempty"`
	OnPromo      bool      `json:"on_promo"`
	Stock        int       `json:"stock"`
	Image        string    `json:"image"`
	Status       string    `json:"status"`
	VendorID     string    `json:"vendor_id"`
	VendorName   string    `json:"vendor_name"`
	VendorLogo   string    `json:"vendor_logo"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// EffectivePrice is the price a buyer pays: the promo price while the item is
// on promotion, the regular price otherwise. Price filters and price sorts use it.
func (i *Item) EffectivePrice() int64 {
	if i.OnPromo && i.PromoPrice != nil {
		return *i.PromoPrice
	}
	return i.Price
}

// Vendor is a shop profile.
type Vendor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Logo        string    `json:"logo"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ItemQuery parameterizes an item lookup. VendorIDs is the eligibility set:
// an empty set matches nothing.
type ItemQuery struct {
	VendorIDs []string
	Text      string
	Filters   domain.Filters
	Sort      domain.Sort
	Offset    int
	Limit     int
}

// VendorQuery parameterizes a vendor lookup.
type VendorQuery struct {
	VendorIDs []string
	Text      string
	Offset    int
	Limit     int
}

// EligibilityResolver resolves which vendors may currently appear in results.
type EligibilityResolver interface {
	ResolveEligibleVendorIDs(ctx context.Context) ([]string, error)
}

// ItemLookup finds active items of eligible vendors.
type ItemLookup interface {
	// LookupItems returns one page of matches and the total match count.
	LookupItems(ctx context.Context, q ItemQuery) ([]Item, int, error)

	// SuggestItems returns up to limit items whose name starts with prefix,
	// compared case-insensitively.
	SuggestItems(ctx context.Context, vendorIDs []string, prefix string, limit int) ([]Item, error)

	// CountActiveItems returns the number of active items per vendor id.
	// Vendors without active items may be absent from the map.
	CountActiveItems(ctx context.Context, vendorIDs []string) (map[string]int, error)
}

// VendorLookup finds eligible vendors.
type VendorLookup interface {
	// LookupVendors returns one page of matches and the total match count.
	LookupVendors(ctx context.Context, q VendorQuery) ([]Vendor, int, error)

	// SuggestVendors returns up to limit vendors whose name starts with
	// prefix, compared case-insensitively.
	SuggestVendors(ctx context.Context, vendorIDs []string, prefix string, limit int) ([]Vendor, error)
}
