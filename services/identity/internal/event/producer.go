package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
	"github.com/Hello-Vince/crm-system/services/identity/internal/domain"
)

// TopicTenantCreated is published whenever a new tenant is inserted into the
// hierarchy.
const TopicTenantCreated = "identity.tenant.created"

// Producer publishes identity domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the identity service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishTenantCreated publishes an identity.tenant.created event.
func (p *Producer) PublishTenantCreated(ctx context.Context, tenant *domain.Tenant) error {
	data := domain.TenantCreated{
		TenantID: tenant.ID,
		Name:     tenant.Name,
		ParentID: tenant.ParentID,
	}

	env, err := pkgkafka.NewEnvelope(TopicTenantCreated, tenant.ID, data)
	if err != nil {
		return fmt.Errorf("build tenant.created envelope: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicTenantCreated, env); err != nil {
		return fmt.Errorf("publish tenant.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published identity.tenant.created",
		slog.String("tenant_id", tenant.ID), slog.String("name", tenant.Name))

	return nil
}
