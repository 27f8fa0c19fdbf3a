package repository

import (
	"context"

	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/services/identity/internal/domain"
)

// UserRepository defines the interface for principal persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// TenantRepository defines the interface for tenant hierarchy persistence
// operations.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
	List(ctx context.Context) ([]domain.Tenant, error)

	// Descendants returns the full descendant set of rootID via a single
	// recursive query, the preferred path over iterative per-node lookups.
	Descendants(ctx context.Context, rootID string) ([]string, error)

	// Nodes returns every tenant as a tenancy.Node (ID and parent edge), used
	// for cycle detection when a parent changes and for walking a tenant's
	// ancestor chain when invalidating cached scopes.
	Nodes(ctx context.Context) ([]tenancy.Node, error)
}
