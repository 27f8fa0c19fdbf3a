package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// DLQTopic constructs the dead-letter topic name for a source topic and the
// consumer group that gave up on it: "<topic>.dlq.<group_id>". Keeping the
// group in the topic name lets two groups consuming the same source topic
// maintain independent dead-letter queues.
func DLQTopic(originalTopic, consumerGroup string) string {
	return fmt.Sprintf("%s.dlq.%s", originalTopic, consumerGroup)
}

// dlqMessage is the envelope published to a dead-letter topic.
type dlqMessage struct {
	OriginalTopic     string          `json:"original_topic"`
	OriginalPartition int             `json:"original_partition"`
	OriginalOffset    int64           `json:"original_offset"`
	OriginalPayload   json.RawMessage `json:"original_payload"`
	FailureReason     string          `json:"failure_reason"`
	RetryCount        int             `json:"retry_count"`
	FailedAt          time.Time       `json:"failed_at"`
	ConsumerGroup     string          `json:"consumer_group"`
}

// DLQProducer publishes failed messages to a dead-letter queue topic.
type DLQProducer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewDLQProducer creates a DLQ producer.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1,
		BatchTimeout: 100 * time.Millisecond,
		Async:        false,
		RequiredAcks: kafka.RequireAll,
	}

	return &DLQProducer{
		writer: w,
		logger: logger,
	}
}

// Publish sends a failed message to the dead-letter topic for its consumer
// group. retryCount is the number of retries attempted before giving up (0
// for a permanent failure that was never retried).
func (d *DLQProducer) Publish(ctx context.Context, coords Coordinates, originalPayload []byte, failureReason string, retryCount int, consumerGroup string) error {
	dlqTopic := DLQTopic(coords.Topic, consumerGroup)

	body := dlqMessage{
		OriginalTopic:     coords.Topic,
		OriginalPartition: coords.Partition,
		OriginalOffset:    coords.Offset,
		OriginalPayload:   originalPayload,
		FailureReason:     failureReason,
		RetryCount:        retryCount,
		FailedAt:          time.Now().UTC(),
		ConsumerGroup:     consumerGroup,
	}

	value, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal dlq message: %w", err)
	}

	key := fmt.Sprintf("%s:%d:%d", coords.Topic, coords.Partition, coords.Offset)

	msg := kafka.Message{
		Topic: dlqTopic,
		Key:   []byte(key),
		Value: value,
	}

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		d.logger.Error("failed to publish message to DLQ",
			slog.String("dlq_topic", dlqTopic),
			slog.String("original_topic", coords.Topic),
			slog.Int("partition", coords.Partition),
			slog.Int64("offset", coords.Offset),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish to DLQ %s: %w", dlqTopic, err)
	}

	d.logger.Warn("message sent to DLQ",
		slog.String("dlq_topic", dlqTopic),
		slog.String("original_topic", coords.Topic),
		slog.Int("partition", coords.Partition),
		slog.Int64("offset", coords.Offset),
		slog.String("consumer_group", consumerGroup),
		slog.String("failure_reason", failureReason),
	)

	return nil
}

// Close closes the DLQ producer.
func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
