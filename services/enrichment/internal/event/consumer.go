// Package event wires the enrichment service's handler into the shared
// consumer runtime.
package event

import (
	"context"
	"log/slog"

	"github.com/Hello-Vince/crm-system/pkg/idempotency"
	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
)

// ConsumerGroupID identifies this service's Kafka consumer group.
const ConsumerGroupID = "enrichment-group"

// TopicCustomerCreated is the only event enrichment consumes.
const TopicCustomerCreated = "crm.customer.created"

// Topics consumed by the enrichment service.
var Topics = []string{TopicCustomerCreated}

// customerCreatedPayload mirrors crm's domain.CustomerCreated JSON shape;
// only the fields enrichment needs are decoded.
type customerCreatedPayload struct {
	CustomerID string `json:"customer_id"`
	Address    string `json:"address"`
}

// Enricher is satisfied by *service.EnrichmentService.
type Enricher interface {
	ProcessCustomerCreated(ctx context.Context, key idempotency.Key, customerID, address string) error
}

// Handler decodes crm.customer.created events and drives the enrichment
// service.
type Handler struct {
	enricher Enricher
	logger   *slog.Logger
}

// NewHandler creates a new event handler.
func NewHandler(enricher Enricher, logger *slog.Logger) *Handler {
	return &Handler{enricher: enricher, logger: logger}
}

// Handle validates the event payload and triggers geocoding enrichment.
func (h *Handler) Handle(ctx context.Context, ev *pkgkafka.Event) error {
	var payload customerCreatedPayload
	if err := ev.UnmarshalPayload(&payload); err != nil {
		return pkgkafka.NewPermanent("decode customer.created payload", err)
	}

	if payload.CustomerID == "" {
		return pkgkafka.NewPermanent("missing customer_id in customer.created payload", nil)
	}
	if payload.Address == "" {
		return pkgkafka.NewPermanent("missing address in customer.created payload", nil)
	}

	key := idempotency.Key{
		ConsumerGroup: ConsumerGroupID,
		Topic:         ev.Topic,
		Partition:     ev.Partition,
		Offset:        ev.Offset,
	}

	if err := h.enricher.ProcessCustomerCreated(ctx, key, payload.CustomerID, payload.Address); err != nil {
		h.logger.WarnContext(ctx, "enrichment failed",
			slog.String("customer_id", payload.CustomerID),
			slog.String("error", err.Error()))
		return err
	}

	return nil
}

// NewRuntime builds the consumer runtime that drives the enrichment handler.
func NewRuntime(brokers []string, enricher Enricher, dlq *pkgkafka.DLQProducer, logger *slog.Logger) *pkgkafka.Runtime {
	handler := NewHandler(enricher, logger)
	cfg := pkgkafka.RuntimeConfig{
		Brokers: brokers,
		GroupID: ConsumerGroupID,
		Topics:  Topics,
	}

	return pkgkafka.NewRuntime(cfg, handler.Handle, dlq, logger)
}
