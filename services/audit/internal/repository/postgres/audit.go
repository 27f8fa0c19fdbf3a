package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hello-Vince/crm-system/services/audit/internal/domain"
	"github.com/Hello-Vince/crm-system/services/audit/internal/repository"
)

// uniqueViolationCode is the Postgres SQLSTATE for a unique constraint
// violation. Checked against pgconn.PgError.Code, not the error string.
const uniqueViolationCode = "23505"

// AuditRepository persists audit logs in Postgres.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a Postgres-backed audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert stores log, relying on the table's unique constraint on
// (topic, partition, offset) to reject a duplicate delivery.
func (r *AuditRepository) Insert(ctx context.Context, log *domain.AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, event_type, payload, tenant_id, topic, partition, "offset", created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.EventType, log.Payload, log.TenantID, log.Topic, log.Partition, log.Offset, log.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, checked by SQLSTATE code rather than string matching.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
