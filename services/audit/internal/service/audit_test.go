package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
	"github.com/Hello-Vince/crm-system/services/audit/internal/domain"
	"github.com/Hello-Vince/crm-system/services/audit/internal/repository"
)

type mockAuditRepository struct {
	mock.Mock
}

func (m *mockAuditRepository) Insert(ctx context.Context, log *domain.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeEventForTest(t *testing.T, eventType, key string, payload any, topic string, partition int, offset int64) *pkgkafka.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &pkgkafka.Event{
		Envelope: pkgkafka.Envelope{EventType: eventType, Key: key, Payload: raw},
		Coordinates: pkgkafka.Coordinates{
			Topic: topic, Partition: partition, Offset: offset,
		},
	}
}

func TestAuditService_Record_PersistsNewEvent(t *testing.T) {
	repo := new(mockAuditRepository)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(l *domain.AuditLog) bool {
		return l.Topic == "crm.customer.created" && l.Partition == 0 && l.Offset == 100
	})).Return(nil)

	svc := NewAuditService(repo, newTestLogger())
	event := decodeEventForTest(t, "crm.customer.created", "c1",
		map[string]any{"created_by_tenant": "tenant-1"}, "crm.customer.created", 0, 100)

	err := svc.Record(context.Background(), event)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuditService_Record_ExtractsTenantFromPayload(t *testing.T) {
	repo := new(mockAuditRepository)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(l *domain.AuditLog) bool {
		return l.TenantID != nil && *l.TenantID == "tenant-9"
	})).Return(nil)

	svc := NewAuditService(repo, newTestLogger())
	event := decodeEventForTest(t, "identity.tenant.created", "t9",
		map[string]any{"tenant_id": "tenant-9"}, "identity.tenant.created", 0, 1)

	err := svc.Record(context.Background(), event)
	require.NoError(t, err)
}

func TestAuditService_Record_DuplicateDeliveryIsNotAnError(t *testing.T) {
	repo := new(mockAuditRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	svc := NewAuditService(repo, newTestLogger())
	event := decodeEventForTest(t, "crm.customer.created", "c1", map[string]any{}, "crm.customer.created", 0, 100)

	err := svc.Record(context.Background(), event)
	assert.NoError(t, err)
}

func TestAuditService_Record_RejectsMissingTopic(t *testing.T) {
	repo := new(mockAuditRepository)
	svc := NewAuditService(repo, newTestLogger())

	event := &pkgkafka.Event{
		Envelope:    pkgkafka.Envelope{EventType: "crm.customer.created", Payload: []byte(`{}`)},
		Coordinates: pkgkafka.Coordinates{Topic: "", Partition: 0, Offset: 1},
	}

	err := svc.Record(context.Background(), event)
	var perm *pkgkafka.Permanent
	assert.ErrorAs(t, err, &perm)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAuditService_Record_ConnectionErrorIsRetryable(t *testing.T) {
	repo := new(mockAuditRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(&pgconn.PgError{Code: "08006", Message: "connection failure"})

	svc := NewAuditService(repo, newTestLogger())
	event := decodeEventForTest(t, "crm.customer.created", "c1", map[string]any{}, "crm.customer.created", 0, 100)

	err := svc.Record(context.Background(), event)
	var retryable *pkgkafka.Retryable
	assert.ErrorAs(t, err, &retryable)
}
