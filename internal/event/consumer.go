package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/discovery/pkg/kafka"
)

// Kafka topic constants for account events consumed by the discovery service.
const (
	TopicUserDeleted = "ecommerce.user.deleted"
)

// UserDeletedData is the payload of a user.deleted event.
type UserDeletedData struct {
	ID string `json:"id"`
}

// HistoryPurger removes every history entry of a user.
type HistoryPurger interface {
	Clear(ctx context.Context, actor string) (int, error)
}

// Consumer handles account events that affect stored search history.
type Consumer struct {
	history HistoryPurger
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the discovery service.
func NewConsumer(history HistoryPurger, logger *slog.Logger) *Consumer {
	return &Consumer{
		history: history,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicUserDeleted:
		return c.handleUserDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleUserDeleted purges the deleted user's search history.
func (c *Consumer) handleUserDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data UserDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal user.deleted data: %w", err)
	}

	userID := data.ID
	if userID == "" {
		userID = event.AggregateID
	}
	if userID == "" {
		c.logger.WarnContext(ctx, "user.deleted event without user id",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	n, err := c.history.Clear(ctx, userID)
	if err != nil {
		return fmt.Errorf("purge history from user.deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "purged search history of deleted user",
		slog.String("user_id", userID),
		slog.Int("deleted", n),
	)

	return nil
}
