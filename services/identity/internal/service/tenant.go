package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/services/identity/internal/domain"
	"github.com/Hello-Vince/crm-system/services/identity/internal/event"
	"github.com/Hello-Vince/crm-system/services/identity/internal/repository"
)

// CreateTenantInput holds the parameters for creating a tenant.
type CreateTenantInput struct {
	Name     string
	ParentID *string
}

// UpdateTenantInput holds the parameters for updating a tenant's hierarchy
// position or active flag.
type UpdateTenantInput struct {
	Name     *string
	ParentID *string
	Active   *bool
}

// TenantService manages the tenant hierarchy.
type TenantService struct {
	tenantRepo repository.TenantRepository
	producer   *event.Producer
	logger     *slog.Logger
}

// NewTenantService creates a new tenant service.
func NewTenantService(tenantRepo repository.TenantRepository, producer *event.Producer, logger *slog.Logger) *TenantService {
	return &TenantService{tenantRepo: tenantRepo, producer: producer, logger: logger}
}

// Create inserts a new tenant, rejecting a parent edge that doesn't exist,
// and publishes identity.tenant.created.
func (s *TenantService) Create(ctx context.Context, in CreateTenantInput) (*domain.Tenant, error) {
	if in.ParentID != nil {
		if _, err := s.tenantRepo.GetByID(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	tenant := &domain.Tenant{
		ID:        uuid.NewString(),
		Name:      in.Name,
		ParentID:  in.ParentID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	if err := s.producer.PublishTenantCreated(ctx, tenant); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tenant.created",
			slog.String("tenant_id", tenant.ID), slog.String("error", err.Error()))
	}

	return tenant, nil
}

// Get retrieves a tenant by ID.
func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

// List returns every tenant.
func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.tenantRepo.List(ctx)
}

// Update applies a partial update to a tenant, rejecting any parent edge
// that would introduce a cycle in the hierarchy (spec §4.5).
func (s *TenantService) Update(ctx context.Context, id string, in UpdateTenantInput) (*domain.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		if *in.ParentID != "" {
			if _, err := s.tenantRepo.GetByID(ctx, *in.ParentID); err != nil {
				return nil, err
			}
			nodes, err := s.tenantRepo.Nodes(ctx)
			if err != nil {
				return nil, err
			}
			if tenancy.WouldCycle(id, *in.ParentID, nodes) {
				return nil, apperrors.InvalidInput("assigning this parent would introduce a cycle in the tenant hierarchy")
			}
			tenant.ParentID = in.ParentID
		} else {
			tenant.ParentID = nil
		}
	}
	if in.Name != nil {
		tenant.Name = *in.Name
	}
	if in.Active != nil {
		tenant.Active = *in.Active
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}
