// Package repository defines the storage contract for geocode attempts.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Hello-Vince/crm-system/services/enrichment/internal/domain"
)

// GeocodeAttemptRepository persists immutable geocode attempt records.
type GeocodeAttemptRepository interface {
	// CreateTx stores attempt within tx, alongside the caller's idempotency
	// record, so both commit atomically.
	CreateTx(ctx context.Context, tx pgx.Tx, attempt *domain.GeocodeAttempt) error
}
