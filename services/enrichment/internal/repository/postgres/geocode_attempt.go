package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hello-Vince/crm-system/services/enrichment/internal/domain"
)

// GeocodeAttemptRepository persists geocode attempts in Postgres.
type GeocodeAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewGeocodeAttemptRepository creates a Postgres-backed geocode attempt repository.
func NewGeocodeAttemptRepository(pool *pgxpool.Pool) *GeocodeAttemptRepository {
	return &GeocodeAttemptRepository{pool: pool}
}

// CreateTx stores attempt within tx, so it commits atomically with the
// caller's idempotency record.
func (r *GeocodeAttemptRepository) CreateTx(ctx context.Context, tx pgx.Tx, attempt *domain.GeocodeAttempt) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO geocode_attempts (id, customer_id, address, latitude, longitude, status, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		attempt.ID, attempt.CustomerID, attempt.Address, attempt.Latitude, attempt.Longitude,
		attempt.Status, attempt.FailureReason, attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert geocode attempt: %w", err)
	}
	return nil
}
