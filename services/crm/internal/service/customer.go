package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/pkg/visibility"
	"github.com/Hello-Vince/crm-system/services/crm/internal/domain"
	"github.com/Hello-Vince/crm-system/services/crm/internal/event"
	"github.com/Hello-Vince/crm-system/services/crm/internal/repository"
)

// CreateCustomerInput holds the parameters for creating a customer.
type CreateCustomerInput struct {
	Name           string
	Email          string
	Address        string
	ExtraVisibleTo []string
}

// UpdateCustomerInput holds the parameters for a partial customer update.
type UpdateCustomerInput struct {
	Name      *string
	Email     *string
	Address   *string
	VisibleTo []string
}

// ListCustomersInput holds search/pagination parameters for listing customers.
type ListCustomersInput struct {
	Search  *string
	Page    int
	PerPage int
}

// CustomerService manages customer records and their tenant visibility.
type CustomerService struct {
	customerRepo repository.CustomerRepository
	producer     *event.Producer
	logger       *slog.Logger
}

// NewCustomerService creates a new customer service.
func NewCustomerService(customerRepo repository.CustomerRepository, producer *event.Producer, logger *slog.Logger) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, producer: producer, logger: logger}
}

// Create inserts a new customer under the calling principal's tenant and
// publishes crm.customer.created. A principal with no tenant (creatorTenantID
// empty) is rejected with 403, not 401: the caller is authenticated, it just
// has nothing to attribute the record to.
func (s *CustomerService) Create(ctx context.Context, creatorTenantID string, in CreateCustomerInput) (*domain.Customer, error) {
	if creatorTenantID == "" {
		return nil, apperrors.Forbidden("a tenant is required to create a customer")
	}

	customer, err := domain.NewCustomer(uuid.NewString(), in.Name, in.Email, in.Address, creatorTenantID, in.ExtraVisibleTo, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.producer.PublishCustomerCreated(ctx, customer); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish customer.created",
			slog.String("customer_id", customer.ID), slog.String("error", err.Error()))
	}

	return customer, nil
}

// Get retrieves a customer by ID, applying the visibility predicate against
// the caller's scope after retrieval. An invisible record is reported as
// not found rather than forbidden, so its existence isn't leaked.
func (s *CustomerService) Get(ctx context.Context, id string, scope []string, isSystemAdmin bool) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibility.Visible(scope, customer.VisibleTo, isSystemAdmin) {
		return nil, apperrors.NotFound("customer", id)
	}
	return customer, nil
}

// List returns customers visible to the caller. A system admin scope applies
// no filter; otherwise the repository restricts results to the caller's
// scope server-side.
func (s *CustomerService) List(ctx context.Context, in ListCustomersInput, scope []string, isSystemAdmin bool) ([]domain.Customer, int, error) {
	filter := repository.CustomerFilter{
		Search:  in.Search,
		Page:    in.Page,
		PerPage: in.PerPage,
	}
	if !isSystemAdmin {
		filter.Scope = scope
		if filter.Scope == nil {
			// A non-nil empty scope matches no rows, so a caller with no
			// visible tenants sees nothing.
			filter.Scope = []string{}
		}
	}
	return s.customerRepo.List(ctx, filter)
}

// Update applies a partial update to a customer visible to the caller and
// publishes crm.customer.updated.
func (s *CustomerService) Update(ctx context.Context, id string, scope []string, isSystemAdmin bool, in UpdateCustomerInput) (*domain.Customer, error) {
	customer, err := s.Get(ctx, id, scope, isSystemAdmin)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		customer.Name = *in.Name
	}
	if in.Email != nil {
		customer.Email = *in.Email
	}
	if in.Address != nil {
		customer.Address = *in.Address
	}
	if in.VisibleTo != nil {
		customer.VisibleTo = dedupeWithCreator(customer.CreatedByTenant, in.VisibleTo)
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.producer.PublishCustomerUpdated(ctx, customer); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish customer.updated",
			slog.String("customer_id", customer.ID), slog.String("error", err.Error()))
	}

	return customer, nil
}

// UpdateCoordinates applies a geocoding result to a customer. It is the
// unauthenticated intra-service RPC target: idempotent and last-writer-wins,
// with no visibility check since it is never reachable from outside the
// platform's own services.
func (s *CustomerService) UpdateCoordinates(ctx context.Context, id string, latitude, longitude float64) error {
	found, err := s.customerRepo.UpdateCoordinates(ctx, id, latitude, longitude, time.Now().UTC())
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NotFound("customer", id)
	}
	return nil
}

// dedupeWithCreator mirrors domain.NewCustomer's visibility dedup, used when
// an update explicitly replaces VisibleTo.
func dedupeWithCreator(createdByTenant string, extra []string) []string {
	seen := map[string]struct{}{createdByTenant: {}}
	list := []string{createdByTenant}
	for _, id := range extra {
		if id == "" || id == createdByTenant {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		list = append(list, id)
	}
	return list
}
