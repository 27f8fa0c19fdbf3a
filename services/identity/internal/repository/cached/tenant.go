// Package cached decorates the Postgres tenant repository with the Redis
// descendant-set cache.
package cached

import (
	"context"
	"log/slog"

	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/services/identity/internal/cache"
	"github.com/Hello-Vince/crm-system/services/identity/internal/domain"
	"github.com/Hello-Vince/crm-system/services/identity/internal/repository"
)

// TenantRepository wraps a repository.TenantRepository, serving Descendants
// from the Redis cache and invalidating affected entries on any write that
// can change the hierarchy shape.
type TenantRepository struct {
	inner  repository.TenantRepository
	scope  *cache.TenantScopeCache
	logger *slog.Logger
}

// NewTenantRepository wraps inner with the given descendant-set cache.
func NewTenantRepository(inner repository.TenantRepository, scope *cache.TenantScopeCache, logger *slog.Logger) *TenantRepository {
	return &TenantRepository{inner: inner, scope: scope, logger: logger}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	if err := r.inner.Create(ctx, tenant); err != nil {
		return err
	}
	if tenant.ParentID != nil {
		r.invalidateAncestors(ctx, *tenant.ParentID)
	}
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *TenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	// Read the stored parent before the write, so a move can evict the old
	// ancestor chain as well as the new one.
	var oldParentID *string
	if old, err := r.inner.GetByID(ctx, tenant.ID); err == nil {
		oldParentID = old.ParentID
	}
	if err := r.inner.Update(ctx, tenant); err != nil {
		return err
	}
	// Every ancestor on the old and the new parent chain may now have a
	// different descendant closure; evict the moved node too since its own
	// Descendants() entry is unaffected but cheap to drop defensively.
	if err := r.scope.Invalidate(ctx, tenant.ID); err != nil {
		r.logger.WarnContext(ctx, "failed to invalidate tenant scope cache", slog.String("error", err.Error()))
	}
	if tenant.ParentID != nil {
		r.invalidateAncestors(ctx, *tenant.ParentID)
	}
	if oldParentID != nil && (tenant.ParentID == nil || *oldParentID != *tenant.ParentID) {
		r.invalidateAncestors(ctx, *oldParentID)
	}
	return nil
}

func (r *TenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	return r.inner.List(ctx)
}

func (r *TenantRepository) Nodes(ctx context.Context) ([]tenancy.Node, error) {
	return r.inner.Nodes(ctx)
}

// Descendants serves from the Redis cache when present, falling back to the
// wrapped repository and repopulating the cache on a miss.
func (r *TenantRepository) Descendants(ctx context.Context, rootID string) ([]string, error) {
	if cached, ok, err := r.scope.Get(ctx, rootID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		r.logger.WarnContext(ctx, "tenant scope cache read failed, falling back to postgres", slog.String("error", err.Error()))
	}

	descendants, err := r.inner.Descendants(ctx, rootID)
	if err != nil {
		return nil, err
	}

	if err := r.scope.Set(ctx, rootID, descendants); err != nil {
		r.logger.WarnContext(ctx, "tenant scope cache write failed", slog.String("error", err.Error()))
	}
	return descendants, nil
}

// invalidateAncestors evicts the cached descendant set of every ancestor of
// startID, since a child insert or move changes all of their closures.
func (r *TenantRepository) invalidateAncestors(ctx context.Context, startID string) {
	nodes, err := r.inner.Nodes(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to load tenant nodes for cache invalidation", slog.String("error", err.Error()))
		return
	}

	byID := make(map[string]tenancy.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	id := startID
	for id != "" {
		if err := r.scope.Invalidate(ctx, id); err != nil {
			r.logger.WarnContext(ctx, "failed to invalidate tenant scope cache", slog.String("tenant_id", id), slog.String("error", err.Error()))
		}
		node, ok := byID[id]
		if !ok || node.ParentID == nil {
			break
		}
		id = *node.ParentID
	}
}
