package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/discovery/internal/domain"
	pkgkafka "github.com/utafrali/discovery/pkg/kafka"
)

// Kafka topic constants for search domain events.
const (
	TopicSearchPerformed = "ecommerce.search.performed"
)

// Aggregate type constant.
const AggregateTypeSearch = "search"

// Source identifier for events originating from the discovery service.
const SourceDiscoveryService = "discovery-service"

// SearchPerformedData is the payload for a search.performed event. Client
// metadata is never published.
type SearchPerformedData struct {
	EntryID         string         `json:"entry_id"`
	UserID          *string        `json:"user_id,omitempty"`
	NormalizedQuery string         `json:"normalized_query"`
	Kind            domain.Kind    `json:"type"`
	Filters         domain.Filters `json:"filters"`
	ItemsFound      int            `json:"items_found"`
	VendorsFound    int            `json:"vendors_found"`
	SearchedAt      time.Time      `json:"searched_at"`
}

// Publisher is the part of the Kafka producer the event producer uses.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes search domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the discovery service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishSearchPerformed publishes a search.performed event for a stored
// history entry.
func (p *Producer) PublishSearchPerformed(ctx context.Context, entry *domain.SearchHistoryEntry) error {
	data := SearchPerformedData{
		EntryID:         entry.ID,
		UserID:          entry.UserID,
		NormalizedQuery: entry.NormalizedQuery,
		Kind:            entry.Kind,
		Filters:         entry.Filters,
		ItemsFound:      entry.ItemsFound,
		VendorsFound:    entry.VendorsFound,
		SearchedAt:      entry.CreatedAt,
	}

	event, err := pkgkafka.NewEvent(TopicSearchPerformed, entry.ID, AggregateTypeSearch, SourceDiscoveryService, data)
	if err != nil {
		return fmt.Errorf("create search.performed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSearchPerformed, event); err != nil {
		return fmt.Errorf("publish search.performed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published search.performed event",
		slog.String("entry_id", entry.ID),
		slog.String("normalized_query", entry.NormalizedQuery),
	)

	return nil
}
