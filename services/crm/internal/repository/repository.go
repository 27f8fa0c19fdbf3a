package repository

import (
	"context"
	"time"

	"github.com/Hello-Vince/crm-system/services/crm/internal/domain"
)

// CustomerFilter defines filter criteria for listing customers.
type CustomerFilter struct {
	Search *string
	// Scope restricts results to records visible to one of these tenant IDs.
	// A nil Scope applies no visibility restriction (system-admin callers).
	Scope   []string
	Page    int
	PerPage int
}

// CustomerRepository defines the interface for customer persistence operations.
type CustomerRepository interface {
	// Create inserts a new customer into the store.
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer by its unique identifier, regardless of visibility.
	// Callers are responsible for applying the visibility predicate themselves.
	GetByID(ctx context.Context, id string) (*domain.Customer, error)

	// List returns customers matching the given filter along with the total count.
	List(ctx context.Context, filter CustomerFilter) ([]domain.Customer, int, error)

	// Update modifies an existing customer's mutable fields.
	Update(ctx context.Context, customer *domain.Customer) error

	// UpdateCoordinates applies a last-writer-wins geocoding result. It reports
	// whether a matching customer was found.
	UpdateCoordinates(ctx context.Context, id string, latitude, longitude float64, geocodedAt time.Time) (bool, error)
}
