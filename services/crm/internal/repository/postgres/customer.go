package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/services/crm/internal/domain"
	"github.com/Hello-Vince/crm-system/services/crm/internal/repository"
)

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new PostgreSQL-backed customer repository.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create inserts a new customer into the database.
func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	visibleToJSON, err := json.Marshal(c.VisibleTo)
	if err != nil {
		return fmt.Errorf("marshal visible_to: %w", err)
	}

	query := `
		INSERT INTO customers (id, name, email, address, latitude, longitude, geocoded_at, created_by_tenant, visible_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		c.Address,
		c.Latitude,
		c.Longitude,
		c.GeocodedAt,
		c.CreatedByTenant,
		visibleToJSON,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by its ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `
		SELECT id, name, email, address, latitude, longitude, geocoded_at, created_by_tenant, visible_to, created_at, updated_at
		FROM customers
		WHERE id = $1`

	return r.scanCustomer(ctx, query, id)
}

// List returns customers matching the given filter with the total count.
func (r *CustomerRepository) List(ctx context.Context, filter repository.CustomerFilter) ([]domain.Customer, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.Scope != nil {
		// visible_to is a JSON array of tenant IDs; ?| tests overlap against a text[].
		conditions = append(conditions, fmt.Sprintf("visible_to ?| $%d", argIndex))
		args = append(args, filter.Scope)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, address, latitude, longitude, geocoded_at, created_by_tenant, visible_to, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM customers
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var (
		customers  []domain.Customer
		totalCount int
	)

	for rows.Next() {
		c, err := scanCustomerRow(rows.Scan, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customer rows: %w", err)
	}

	if customers == nil {
		customers = []domain.Customer{}
	}

	return customers, totalCount, nil
}

// Update modifies an existing customer's mutable fields.
func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	visibleToJSON, err := json.Marshal(c.VisibleTo)
	if err != nil {
		return fmt.Errorf("marshal visible_to: %w", err)
	}

	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE customers
		SET name = $1, email = $2, address = $3, visible_to = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query,
		c.Name,
		c.Email,
		c.Address,
		visibleToJSON,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("customer", c.ID)
	}

	return nil
}

// UpdateCoordinates applies a last-writer-wins geocoding result.
func (r *CustomerRepository) UpdateCoordinates(ctx context.Context, id string, latitude, longitude float64, geocodedAt time.Time) (bool, error) {
	query := `
		UPDATE customers
		SET latitude = $1, longitude = $2, geocoded_at = $3, updated_at = $3
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, latitude, longitude, geocodedAt, id)
	if err != nil {
		return false, fmt.Errorf("update customer coordinates: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// scanCustomer executes a query expected to return a single customer row.
func (r *CustomerRepository) scanCustomer(ctx context.Context, query string, args ...any) (*domain.Customer, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	c, err := scanCustomerRow(row.Scan, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// scanCustomerRow scans a single customer row using the given scan function,
// optionally also scanning a trailing total_count column when totalCount is non-nil.
func scanCustomerRow(scan func(dest ...any) error, totalCount *int) (*domain.Customer, error) {
	var (
		c            domain.Customer
		visibleToRaw []byte
	)

	dest := []any{
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Address,
		&c.Latitude,
		&c.Longitude,
		&c.GeocodedAt,
		&c.CreatedByTenant,
		&visibleToRaw,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}

	if err := scan(dest...); err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}

	if visibleToRaw != nil {
		if err := json.Unmarshal(visibleToRaw, &c.VisibleTo); err != nil {
			return nil, fmt.Errorf("unmarshal visible_to: %w", err)
		}
	}

	return &c, nil
}
