package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/discovery/internal/normalize"
)

// SearchHistoryEntry records one executed search. Entries are immutable once
// written. Anonymous entries (nil UserID) expire after the retention window.
type SearchHistoryEntry struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"user_id,omitempty"`
	Query           string    `json:"query"`
	NormalizedQuery string    `json:"normalized_query"`
	Kind            Kind      `json:"type"`
	Filters         Filters   `json:"filters"`
	ItemsFound      int       `json:"items_found"`
	VendorsFound    int       `json:"vendors_found"`
	IPAddress       string    `json:"-"`
	UserAgent       string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// ClientInfo carries request metadata stored alongside a history entry.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// NewHistoryEntry builds an entry for a completed search. The normalized key
// is always derived from the query here, never supplied by callers.
func NewHistoryEntry(actor, query string, kind Kind, filters Filters, itemsFound, vendorsFound int, client ClientInfo) *SearchHistoryEntry {
	query = strings.TrimSpace(query)
	entry := &SearchHistoryEntry{
		ID:              uuid.New().String(),
		Query:           query,
		NormalizedQuery: normalize.Key(query),
		Kind:            kind,
		Filters:         filters,
		ItemsFound:      itemsFound,
		VendorsFound:    vendorsFound,
		IPAddress:       client.IPAddress,
		UserAgent:       client.UserAgent,
		CreatedAt:       time.Now().UTC(),
	}
	if actor != "" {
		entry.UserID = &actor
	}
	return entry
}

// IsAnonymous reports whether the entry belongs to no actor.
func (e *SearchHistoryEntry) IsAnonymous() bool {
	return e.UserID == nil
}

// OwnedBy reports whether the entry belongs to actor.
func (e *SearchHistoryEntry) OwnedBy(actor string) bool {
	return e.UserID != nil && *e.UserID == actor
}

// DeleteOutcome is the result of an ownership-scoped delete.
type DeleteOutcome int

const (
	DeleteOutcomeDeleted DeleteOutcome = iota
	DeleteOutcomeNotFound
	DeleteOutcomeForeign
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteOutcomeDeleted:
		return "deleted"
	case DeleteOutcomeNotFound:
		return "not_found"
	case DeleteOutcomeForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// TrendingEntry is one row of the trending leaderboard. Query is the most
// recently searched raw text of the group.
type TrendingEntry struct {
	Query           string    `json:"query"`
	NormalizedQuery string    `json:"normalized_query"`
	Count           int       `json:"count"`
	LastSearchedAt  time.Time `json:"last_searched_at"`
}

// PopularQuery is a history group matched by prefix, used for suggestions.
type PopularQuery struct {
	Query           string
	NormalizedQuery string
	Count           int
}
