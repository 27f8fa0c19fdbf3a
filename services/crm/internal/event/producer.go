package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
	"github.com/Hello-Vince/crm-system/services/crm/internal/domain"
)

// Kafka topics for customer domain events.
const (
	TopicCustomerCreated = "crm.customer.created"
	TopicCustomerUpdated = "crm.customer.updated"
)

// Producer publishes customer domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the crm service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishCustomerCreated publishes a crm.customer.created event.
func (p *Producer) PublishCustomerCreated(ctx context.Context, customer *domain.Customer) error {
	data := domain.CustomerCreated{
		CustomerID:      customer.ID,
		Name:            customer.Name,
		Email:           customer.Email,
		Address:         customer.Address,
		CreatedByTenant: customer.CreatedByTenant,
		VisibleTo:       customer.VisibleTo,
	}

	env, err := pkgkafka.NewEnvelope(TopicCustomerCreated, customer.ID, data)
	if err != nil {
		return fmt.Errorf("build customer.created envelope: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCustomerCreated, env); err != nil {
		return fmt.Errorf("publish customer.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published crm.customer.created",
		slog.String("customer_id", customer.ID))

	return nil
}

// PublishCustomerUpdated publishes a crm.customer.updated event.
func (p *Producer) PublishCustomerUpdated(ctx context.Context, customer *domain.Customer) error {
	data := domain.CustomerUpdated{
		CustomerID: customer.ID,
		Name:       customer.Name,
		Email:      customer.Email,
		Address:    customer.Address,
		VisibleTo:  customer.VisibleTo,
	}

	env, err := pkgkafka.NewEnvelope(TopicCustomerUpdated, customer.ID, data)
	if err != nil {
		return fmt.Errorf("build customer.updated envelope: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCustomerUpdated, env); err != nil {
		return fmt.Errorf("publish customer.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published crm.customer.updated",
		slog.String("customer_id", customer.ID))

	return nil
}
