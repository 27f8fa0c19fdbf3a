package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Hello-Vince/crm-system/services/notification/internal/domain"
)

// NotificationFilter defines filter criteria for listing notifications.
type NotificationFilter struct {
	// Scope restricts results to records visible to one of these tenant IDs.
	// A nil Scope applies no visibility restriction (system-admin callers).
	Scope   []string
	Page    int
	PerPage int
}

// NotificationRepository defines the interface for notification persistence operations.
type NotificationRepository interface {
	// Create inserts a new notification into the store.
	Create(ctx context.Context, notification *domain.Notification) error

	// CreateTx inserts a new notification using an existing transaction, so
	// the event consumer can commit the insert and its idempotency record
	// atomically.
	CreateTx(ctx context.Context, tx pgx.Tx, notification *domain.Notification) error

	// GetByID retrieves a notification by its unique identifier, regardless
	// of visibility. Callers are responsible for applying the visibility
	// predicate themselves.
	GetByID(ctx context.Context, id string) (*domain.Notification, error)

	// List returns notifications matching the given filter along with the total count.
	List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, int, error)

	// Update persists a notification's mutable fields (currently only ReadBy).
	Update(ctx context.Context, notification *domain.Notification) error
}
