package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/services/identity/internal/domain"
)

// TenantRepository implements repository.TenantRepository using PostgreSQL.
type TenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository creates a new PostgreSQL-backed tenant repository.
func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// Create inserts a new tenant into the database.
func (r *TenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, parent_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, t.ID, t.Name, t.ParentID, t.Active, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("tenant", "id", t.ID)
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by its ID.
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `SELECT id, name, parent_id, active, created_at, updated_at FROM tenants WHERE id = $1`

	var t domain.Tenant
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.ParentID, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}

// Update modifies an existing tenant in the database.
func (r *TenantRepository) Update(ctx context.Context, t *domain.Tenant) error {
	t.UpdatedAt = time.Now().UTC()

	query := `UPDATE tenants SET name = $1, parent_id = $2, active = $3, updated_at = $4 WHERE id = $5`

	ct, err := r.pool.Exec(ctx, query, t.Name, t.ParentID, t.Active, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tenant", t.ID)
	}
	return nil
}

// List returns every tenant, ordered by name.
func (r *TenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	query := `SELECT id, name, parent_id, active, created_at, updated_at FROM tenants ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.ParentID, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant row: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant rows: %w", err)
	}
	return tenants, nil
}

// Descendants computes the full descendant set of rootID with a single
// recursive query, rather than the repeated-query pattern the teacher's
// category tree used.
func (r *TenantRepository) Descendants(ctx context.Context, rootID string) ([]string, error) {
	query := `
		WITH RECURSIVE descendants AS (
			SELECT id, parent_id FROM tenants WHERE parent_id = $1
			UNION ALL
			SELECT t.id, t.parent_id FROM tenants t
			INNER JOIN descendants d ON t.parent_id = d.id
		)
		SELECT id FROM descendants`

	rows, err := r.pool.Query(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("query descendants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan descendant row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descendant rows: %w", err)
	}
	return ids, nil
}

// Nodes returns every tenant as a tenancy.Node (ID and parent edge only).
func (r *TenantRepository) Nodes(ctx context.Context) ([]tenancy.Node, error) {
	query := `SELECT id, parent_id FROM tenants`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tenant nodes: %w", err)
	}
	defer rows.Close()

	var nodes []tenancy.Node
	for rows.Next() {
		var n tenancy.Node
		if err := rows.Scan(&n.ID, &n.ParentID); err != nil {
			return nil, fmt.Errorf("scan tenant node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant node rows: %w", err)
	}
	return nodes, nil
}
