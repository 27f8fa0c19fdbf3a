// Package event wires the audit service's handler into the shared consumer
// runtime.
package event

import (
	"context"
	"log/slog"

	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
)

// ConsumerGroupID identifies this service's Kafka consumer group and names
// its dead-letter topics. The audit table's idempotency does not depend on
// it: its unique key is (topic, partition, offset) alone.
const ConsumerGroupID = "audit-group"

// Topics consumed by the audit service: every customer event from crm and
// every tenant event from identity.
var Topics = []string{
	"crm.customer.created",
	"crm.customer.updated",
	"identity.tenant.created",
}

// Recorder is satisfied by *service.AuditService.
type Recorder interface {
	Record(ctx context.Context, event *pkgkafka.Event) error
}

// NewRuntime builds the consumer runtime that drives the audit handler.
func NewRuntime(brokers []string, recorder Recorder, dlq *pkgkafka.DLQProducer, logger *slog.Logger) *pkgkafka.Runtime {
	cfg := pkgkafka.RuntimeConfig{
		Brokers: brokers,
		GroupID: ConsumerGroupID,
		Topics:  Topics,
	}

	return pkgkafka.NewRuntime(cfg, recorder.Record, dlq, logger)
}
