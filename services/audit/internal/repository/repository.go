// Package repository defines the storage contract for audit logs.
package repository

import (
	"context"

	"github.com/Hello-Vince/crm-system/services/audit/internal/domain"
)

// ErrDuplicate is returned by Insert when a record with the same
// (topic, partition, offset) already exists. It is the idempotency signal:
// callers treat it as success, not failure.
var ErrDuplicate = errDuplicate{}

type errDuplicate struct{}

func (errDuplicate) Error() string { return "audit log already recorded for this coordinate" }

// AuditRepository persists immutable audit records.
type AuditRepository interface {
	// Insert stores log. It returns ErrDuplicate, not a generic error, when
	// (topic, partition, offset) was already recorded by another delivery.
	Insert(ctx context.Context, log *domain.AuditLog) error
}
