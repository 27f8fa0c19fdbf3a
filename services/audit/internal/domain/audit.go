// Package domain holds the audit log entity. An audit record is append-only:
// there is no update or delete path anywhere in this service.
package domain

import (
	"fmt"
	"time"
)

// AuditLog is an immutable record of one successfully consumed event.
// Uniqueness of (topic, partition, offset) is the record's idempotency
// guarantee: a second delivery of the same message produces a unique
// constraint violation on insert rather than a duplicate row.
type AuditLog struct {
	ID        string
	EventType string
	Payload   []byte
	TenantID  *string
	Topic     string
	Partition int
	Offset    int64
	CreatedAt time.Time
}

// NewAuditLog validates and constructs an audit record for a decoded event.
// Callers pass the Kafka coordinates explicitly since nothing about an audit
// log's validity depends on when it is persisted.
func NewAuditLog(id, eventType string, payload []byte, tenantID *string, topic string, partition int, offset int64, now time.Time) (*AuditLog, error) {
	if eventType == "" {
		return nil, fmt.Errorf("event type is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if partition < 0 {
		return nil, fmt.Errorf("partition must be non-negative, got %d", partition)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must be non-negative, got %d", offset)
	}

	return &AuditLog{
		ID:        id,
		EventType: eventType,
		Payload:   payload,
		TenantID:  tenantID,
		Topic:     topic,
		Partition: partition,
		Offset:    offset,
		CreatedAt: now,
	}, nil
}
