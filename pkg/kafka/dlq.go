package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DeadLetterPrefix prefixes the topic that receives messages a consumer
// gave up on.
const DeadLetterPrefix = "ecommerce.dlq"

// DeadLetterTopic returns the dead-letter topic for topic.
func DeadLetterTopic(topic string) string {
	return DeadLetterPrefix + "." + topic
}

// DeadLetterQueue parks undecodable or unprocessable messages, together with
// where they came from and why they failed, for later inspection or replay.
type DeadLetterQueue struct {
	writer messageWriter
	logger *slog.Logger
}

// NewDeadLetterQueue creates a synchronous dead-letter writer.
func NewDeadLetterQueue(brokers []string, logger *slog.Logger) *DeadLetterQueue {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              1,
		BatchTimeout:           100 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newDeadLetterQueue(w, logger)
}

func newDeadLetterQueue(w messageWriter, logger *slog.Logger) *DeadLetterQueue {
	return &DeadLetterQueue{writer: w, logger: logger}
}

// Publish copies msg to its dead-letter topic. The original headers are kept
// and dlq.* headers describe the source position and the failure.
func (q *DeadLetterQueue) Publish(ctx context.Context, msg kafka.Message, group string, cause error) error {
	topic := DeadLetterTopic(msg.Topic)

	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(group)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(cause.Error())})
	}

	err := q.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("publish to dead-letter topic %s: %w", topic, err)
	}

	consumerMessagesDeadLettered.WithLabelValues(msg.Topic, group).Inc()
	q.logger.Warn("message dead-lettered",
		slog.String("dlq_topic", topic),
		slog.String("original_topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.String("consumer_group", group),
	)
	return nil
}

// Close flushes and closes the writer.
func (q *DeadLetterQueue) Close() error {
	return q.writer.Close()
}
