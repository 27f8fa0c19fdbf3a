package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/services/notification/internal/domain"
	"github.com/Hello-Vince/crm-system/services/notification/internal/repository"
)

// NotificationRepository implements repository.NotificationRepository using PostgreSQL.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new PostgreSQL-backed notification repository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so the insert can
// run standalone or as part of the event consumer's idempotency transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Create inserts a new notification into the database.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return insertNotification(ctx, r.pool, n)
}

// CreateTx inserts a new notification using an existing transaction.
func (r *NotificationRepository) CreateTx(ctx context.Context, tx pgx.Tx, n *domain.Notification) error {
	return insertNotification(ctx, tx, n)
}

func insertNotification(ctx context.Context, q execer, n *domain.Notification) error {
	visibleToJSON, err := json.Marshal(n.VisibleTo)
	if err != nil {
		return fmt.Errorf("marshal visible_to: %w", err)
	}
	readByJSON, err := json.Marshal(n.ReadBy)
	if err != nil {
		return fmt.Errorf("marshal read_by: %w", err)
	}

	query := `
		INSERT INTO notifications (id, event_type, title, message, visible_to, related_entity, created_at, read_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = q.Exec(ctx, query,
		n.ID,
		n.EventType,
		n.Title,
		n.Message,
		visibleToJSON,
		n.RelatedEntity,
		n.CreatedAt,
		readByJSON,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by its ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `
		SELECT id, event_type, title, message, visible_to, related_entity, created_at, read_by
		FROM notifications
		WHERE id = $1`

	return r.scanNotification(ctx, query, id)
}

// List returns notifications matching the given filter with the total count.
func (r *NotificationRepository) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

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
		SELECT id, event_type, title, message, visible_to, related_entity, created_at, read_by,
			   count(*) OVER() AS total_count
		FROM notifications
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
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var (
		notifications []domain.Notification
		totalCount    int
	)

	for rows.Next() {
		n, err := scanNotificationRow(rows.Scan, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notification rows: %w", err)
	}

	if notifications == nil {
		notifications = []domain.Notification{}
	}

	return notifications, totalCount, nil
}

// Update persists a notification's mutable fields (currently only ReadBy).
func (r *NotificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	readByJSON, err := json.Marshal(n.ReadBy)
	if err != nil {
		return fmt.Errorf("marshal read_by: %w", err)
	}

	query := `
		UPDATE notifications
		SET read_by = $1
		WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, readByJSON, n.ID)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("notification", n.ID)
	}

	return nil
}

// scanNotification executes a query expected to return a single notification row.
func (r *NotificationRepository) scanNotification(ctx context.Context, query string, args ...any) (*domain.Notification, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	n, err := scanNotificationRow(row.Scan, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

// scanNotificationRow scans a single notification row using the given scan
// function, optionally also scanning a trailing total_count column when
// totalCount is non-nil.
func scanNotificationRow(scan func(dest ...any) error, totalCount *int) (*domain.Notification, error) {
	var (
		n            domain.Notification
		visibleToRaw []byte
		readByRaw    []byte
	)

	dest := []any{
		&n.ID,
		&n.EventType,
		&n.Title,
		&n.Message,
		&visibleToRaw,
		&n.RelatedEntity,
		&n.CreatedAt,
		&readByRaw,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}

	if err := scan(dest...); err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}

	if visibleToRaw != nil {
		if err := json.Unmarshal(visibleToRaw, &n.VisibleTo); err != nil {
			return nil, fmt.Errorf("unmarshal visible_to: %w", err)
		}
	}
	if readByRaw != nil {
		if err := json.Unmarshal(readByRaw, &n.ReadBy); err != nil {
			return nil, fmt.Errorf("unmarshal read_by: %w", err)
		}
	}

	return &n, nil
}
