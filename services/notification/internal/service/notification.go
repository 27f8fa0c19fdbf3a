package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/pkg/idempotency"
	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
	"github.com/Hello-Vince/crm-system/pkg/visibility"
	"github.com/Hello-Vince/crm-system/services/notification/internal/domain"
	"github.com/Hello-Vince/crm-system/services/notification/internal/repository"
	"github.com/Hello-Vince/crm-system/services/notification/internal/sender"
)

// ListNotificationsInput holds pagination parameters for listing notifications.
type ListNotificationsInput struct {
	Page    int
	PerPage int
}

// NotificationService manages notification records and their delivery.
type NotificationService struct {
	pool        *pgxpool.Pool
	repo        repository.NotificationRepository
	idempotency *idempotency.Store
	senders     map[string]sender.Sender
	logger      *slog.Logger
	now         func() time.Time
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	pool *pgxpool.Pool,
	repo repository.NotificationRepository,
	store *idempotency.Store,
	senders map[string]sender.Sender,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		pool:        pool,
		repo:        repo,
		idempotency: store,
		senders:     senders,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateFromEvent builds and persists a notification for a consumed event.
// The idempotency check, the insert, and the idempotency record commit as
// a single transaction, so a message redelivered after a crash between them
// cannot double-create a notification nor get stuck replaying forever.
func (s *NotificationService) CreateFromEvent(ctx context.Context, key idempotency.Key, eventType, title, message string, visibleTo []string, relatedEntity *string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return pkgkafka.NewRetryable("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	seen, err := s.idempotency.Seen(ctx, tx, key)
	if err != nil {
		return classifyError(err)
	}
	if seen {
		s.logger.DebugContext(ctx, "duplicate delivery, skipping",
			slog.String("topic", key.Topic), slog.Int("partition", key.Partition), slog.Int64("offset", key.Offset))
		return nil
	}

	notification, err := domain.NewNotification(uuid.NewString(), eventType, title, message, visibleTo, relatedEntity, s.now())
	if err != nil {
		return pkgkafka.NewPermanent("invalid notification", err)
	}

	if err := s.repo.CreateTx(ctx, tx, notification); err != nil {
		return classifyError(err)
	}

	if err := s.idempotency.Record(ctx, tx, key); err != nil {
		return classifyError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return pkgkafka.NewRetryable("commit transaction", err)
	}

	s.dispatch(ctx, notification)

	return nil
}

// dispatch fans the notification out through every registered channel
// sender. Delivery failures are logged, not propagated: the in-app record
// is already committed, which is the only channel the visibility API reads.
func (s *NotificationService) dispatch(ctx context.Context, n *domain.Notification) {
	for channel, snd := range s.senders {
		if err := snd.Send(ctx, n); err != nil {
			s.logger.ErrorContext(ctx, "sender failed to deliver notification",
				slog.String("channel", channel),
				slog.String("notification_id", n.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// List returns notifications visible to the caller. A system admin scope
// applies no filter; otherwise the repository restricts results to the
// caller's scope server-side.
func (s *NotificationService) List(ctx context.Context, in ListNotificationsInput, scope []string, isSystemAdmin bool) ([]domain.Notification, int, error) {
	filter := repository.NotificationFilter{
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
	return s.repo.List(ctx, filter)
}

// MarkRead records that userID has read a notification visible to the
// caller. An invisible record is reported as not found rather than
// forbidden, so its existence isn't leaked. Marking an already-read
// notification read again is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string, scope []string, isSystemAdmin bool) (*domain.Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibility.Visible(scope, notification.VisibleTo, isSystemAdmin) {
		return nil, apperrors.NotFound("notification", id)
	}

	notification.MarkReadBy(userID)

	if err := s.repo.Update(ctx, notification); err != nil {
		return nil, err
	}

	return notification, nil
}

// classifyError maps a Postgres error to the Kafka runtime's retry
// classification, by SQLSTATE class rather than matching against the
// error's text. Every failure reaching this path is treated as retryable:
// the input has already passed validation by the time it reaches the
// database, so there is no permanent-failure shape left to distinguish.
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code[:2] {
		case "08", "53", "57":
			return pkgkafka.NewRetryable("postgres connection or resource error", err)
		}
	}
	return pkgkafka.NewRetryable("notification write failed", err)
}
