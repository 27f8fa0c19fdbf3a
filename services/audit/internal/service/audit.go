// Package service implements the audit handler contract: validate event
// metadata, persist an immutable record, and classify failures so the
// consumer runtime knows whether to retry or route to the dead-letter queue.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
	"github.com/Hello-Vince/crm-system/services/audit/internal/domain"
	"github.com/Hello-Vince/crm-system/services/audit/internal/repository"
)

// AuditService records one audit log per distinct event delivery.
type AuditService struct {
	repo   repository.AuditRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditService creates an audit service backed by repo.
func NewAuditService(repo repository.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger, now: time.Now}
}

// payloadTenant extracts an optional tenant identifier from an event payload.
// Different producers tag the owning tenant under different field names
// (crm's customer events use created_by_tenant, identity's tenant events use
// tenant_id), so both are checked; neither is required.
type payloadTenant struct {
	TenantID        *string `json:"tenant_id"`
	CreatedByTenant *string `json:"created_by_tenant"`
}

// Record validates an event's coordinates, then persists an audit log for
// it. A duplicate delivery (same topic, partition, offset) is treated as
// success with no new row written.
func (s *AuditService) Record(ctx context.Context, event *pkgkafka.Event) error {
	if event.Topic == "" {
		return pkgkafka.NewPermanent("missing kafka topic metadata", nil)
	}
	if event.Partition < 0 {
		return pkgkafka.NewPermanent(fmt.Sprintf("invalid kafka partition metadata: %d", event.Partition), nil)
	}
	if event.Offset < 0 {
		return pkgkafka.NewPermanent(fmt.Sprintf("invalid kafka offset metadata: %d", event.Offset), nil)
	}

	eventType := event.EventType
	if eventType == "" {
		eventType = event.Topic
	}

	var tenant payloadTenant
	_ = event.UnmarshalPayload(&tenant) // best-effort; missing tenant fields are not an error
	tenantID := tenant.TenantID
	if tenantID == nil {
		tenantID = tenant.CreatedByTenant
	}

	log, err := domain.NewAuditLog(uuid.NewString(), eventType, event.Payload, tenantID, event.Topic, event.Partition, event.Offset, s.now().UTC())
	if err != nil {
		return pkgkafka.NewPermanent("invalid audit log fields", err)
	}

	if err := s.repo.Insert(ctx, log); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.DebugContext(ctx, "duplicate delivery, audit log already recorded",
				slog.String("topic", event.Topic), slog.Int("partition", event.Partition), slog.Int64("offset", event.Offset))
			return nil
		}
		return classifyInsertError(err)
	}

	return nil
}

// classifyInsertError distinguishes a transient Postgres failure (connection
// dropped, server shutting down, resources exhausted) from anything else, by
// SQLSTATE class rather than matching against the error's text.
func classifyInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code[:2] {
		case "08", "53", "57":
			return pkgkafka.NewRetryable("postgres connection or resource error", err)
		}
	}
	// Anything else reaching this path (context deadline, dial failure before
	// a PgError could even be constructed) is presumed transient: a write
	// failure is never a reason to discard an otherwise well-formed event.
	return pkgkafka.NewRetryable("audit log insert failed", err)
}
