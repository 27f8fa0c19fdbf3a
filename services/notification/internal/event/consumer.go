// Package event wires the notification service's handler into the shared
// consumer runtime.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Hello-Vince/crm-system/pkg/idempotency"
	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
)

// ConsumerGroupID identifies this service's Kafka consumer group.
const ConsumerGroupID = "notification-group"

// TopicCustomerCreated is the only event this service currently reacts to:
// every new customer fans out to an in-app notification for everyone who can
// see it.
const TopicCustomerCreated = "crm.customer.created"

// Topics consumed by the notification service.
var Topics = []string{TopicCustomerCreated}

// customerCreatedPayload mirrors crm's domain.CustomerCreated wire shape.
type customerCreatedPayload struct {
	CustomerID string   `json:"customer_id"`
	Name       string   `json:"name"`
	VisibleTo  []string `json:"visible_to"`
}

// Creator is satisfied by *service.NotificationService.
type Creator interface {
	CreateFromEvent(ctx context.Context, key idempotency.Key, eventType, title, message string, visibleTo []string, relatedEntity *string) error
}

// Handler translates crm.customer.created events into notifications.
type Handler struct {
	creator Creator
	logger  *slog.Logger
}

// NewHandler creates a new notification event handler.
func NewHandler(creator Creator, logger *slog.Logger) *Handler {
	return &Handler{creator: creator, logger: logger}
}

// Handle processes a single decoded event. A malformed or incomplete payload
// is a Permanent failure (no amount of retrying fixes it); anything else is
// classified by CreateFromEvent.
func (h *Handler) Handle(ctx context.Context, ev *pkgkafka.Event) error {
	var payload customerCreatedPayload
	if err := ev.UnmarshalPayload(&payload); err != nil {
		return pkgkafka.NewPermanent("malformed customer.created payload", err)
	}

	if payload.CustomerID == "" {
		return pkgkafka.NewPermanent("customer.created payload missing customer_id", nil)
	}
	if payload.Name == "" {
		return pkgkafka.NewPermanent("customer.created payload missing name", nil)
	}
	if payload.VisibleTo == nil {
		return pkgkafka.NewPermanent("customer.created payload missing visible_to list", nil)
	}

	key := idempotency.Key{
		ConsumerGroup: ConsumerGroupID,
		Topic:         ev.Topic,
		Partition:     ev.Partition,
		Offset:        ev.Offset,
	}

	title := fmt.Sprintf("New Customer: %s", payload.Name)
	message := fmt.Sprintf("A new customer '%s' has been added to your system.", payload.Name)

	return h.creator.CreateFromEvent(ctx, key, ev.EventType, title, message, payload.VisibleTo, &payload.CustomerID)
}

// NewRuntime builds the consumer runtime that drives the notification handler.
func NewRuntime(brokers []string, creator Creator, dlq *pkgkafka.DLQProducer, logger *slog.Logger) *pkgkafka.Runtime {
	h := NewHandler(creator, logger)

	cfg := pkgkafka.RuntimeConfig{
		Brokers: brokers,
		GroupID: ConsumerGroupID,
		Topics:  Topics,
	}

	return pkgkafka.NewRuntime(cfg, h.Handle, dlq, logger)
}
