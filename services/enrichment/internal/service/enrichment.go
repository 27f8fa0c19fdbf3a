// Package service implements the enrichment handler contract: validate event
// metadata, geocode the customer's address, relay the result to crm, and
// record the attempt so a redelivery of the same message is a no-op.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hello-Vince/crm-system/pkg/idempotency"
	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
	"github.com/Hello-Vince/crm-system/services/enrichment/internal/domain"
	"github.com/Hello-Vince/crm-system/services/enrichment/internal/provider"
	"github.com/Hello-Vince/crm-system/services/enrichment/internal/repository"
)

// CRMClient relays a geocoded coordinate pair to crm's internal RPC. Its
// implementation is responsible for classifying the outcome as Retryable or
// Permanent before returning.
type CRMClient interface {
	UpdateCoordinates(ctx context.Context, customerID string, latitude, longitude float64) error
}

// EnrichmentService geocodes a customer's address and relays the result to crm.
type EnrichmentService struct {
	pool        *pgxpool.Pool
	repo        repository.GeocodeAttemptRepository
	idempotency *idempotency.Store
	geocoder    provider.Geocoder
	crm         CRMClient
	logger      *slog.Logger
	now         func() time.Time
}

// NewEnrichmentService creates a new enrichment service.
func NewEnrichmentService(
	pool *pgxpool.Pool,
	repo repository.GeocodeAttemptRepository,
	store *idempotency.Store,
	geocoder provider.Geocoder,
	crm CRMClient,
	logger *slog.Logger,
) *EnrichmentService {
	return &EnrichmentService{
		pool:        pool,
		repo:        repo,
		idempotency: store,
		geocoder:    geocoder,
		crm:         crm,
		logger:      logger,
		now:         time.Now,
	}
}

// ProcessCustomerCreated geocodes address, relays the coordinates to crm, and
// records the attempt in the same transaction as the idempotency marker.
// Redeliveries of an already-processed message are a no-op.
func (s *EnrichmentService) ProcessCustomerCreated(ctx context.Context, key idempotency.Key, customerID, address string) error {
	seen, err := s.idempotency.Seen(ctx, s.pool, key)
	if err != nil {
		return pkgkafka.NewRetryable("check idempotency store", err)
	}
	if seen {
		s.logger.DebugContext(ctx, "duplicate delivery, geocoding already performed",
			slog.String("customer_id", customerID))
		return nil
	}

	latitude, longitude, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return pkgkafka.NewRetryable("geocode address", err)
	}

	if err := s.crm.UpdateCoordinates(ctx, customerID, latitude, longitude); err != nil {
		return err
	}

	attempt, err := domain.NewSucceededAttempt(uuid.NewString(), customerID, address, latitude, longitude, s.now().UTC())
	if err != nil {
		return pkgkafka.NewPermanent("invalid geocode attempt", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return pkgkafka.NewRetryable("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.CreateTx(ctx, tx, attempt); err != nil {
		return classifyError(err)
	}
	if err := s.idempotency.Record(ctx, tx, key); err != nil {
		return classifyError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return pkgkafka.NewRetryable("commit transaction", err)
	}

	return nil
}

// classifyError distinguishes a transient Postgres failure (connection
// dropped, server shutting down, resources exhausted) from anything else, by
// SQLSTATE class rather than matching against the error's text.
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code[:2] {
		case "08", "53", "57":
			return pkgkafka.NewRetryable("postgres connection or resource error", err)
		}
	}
	return pkgkafka.NewRetryable("geocode attempt persistence failed", err)
}
