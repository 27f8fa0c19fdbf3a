package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/services/identity/internal/domain"
	"github.com/Hello-Vince/crm-system/services/identity/internal/event"
)

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func TestTenantService_Create_RejectsMissingParent(t *testing.T) {
	parentID := "does-not-exist"
	tenantRepo := new(mockTenantRepository)
	tenantRepo.On("GetByID", mock.Anything, parentID).Return(nil, apperrors.ErrNotFound)

	svc := NewTenantService(tenantRepo, newTestEventProducer(), newTestLogger())

	_, err := svc.Create(context.Background(), CreateTenantInput{Name: "Child", ParentID: &parentID})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTenantService_Update_RejectsCycle(t *testing.T) {
	root := domain.Tenant{ID: "root", Name: "Root", Active: true}
	child := domain.Tenant{ID: "child", Name: "Child", ParentID: strPtr("root"), Active: true}

	tenantRepo := new(mockTenantRepository)
	tenantRepo.On("GetByID", mock.Anything, "root").Return(&root, nil)
	tenantRepo.On("GetByID", mock.Anything, "child").Return(&child, nil)
	tenantRepo.On("Nodes", mock.Anything).Return([]tenancy.Node{
		{ID: "root", ParentID: nil},
		{ID: "child", ParentID: strPtr("root")},
	}, nil)

	svc := NewTenantService(tenantRepo, newTestEventProducer(), newTestLogger())

	// Re-parenting root under its own descendant child would create a cycle.
	_, err := svc.Update(context.Background(), "root", UpdateTenantInput{ParentID: strPtr("child")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTenantService_Update_ClearsParentOnEmptyString(t *testing.T) {
	tenant := domain.Tenant{ID: "child", Name: "Child", ParentID: strPtr("root"), Active: true}

	tenantRepo := new(mockTenantRepository)
	tenantRepo.On("GetByID", mock.Anything, "child").Return(&tenant, nil)
	tenantRepo.On("Update", mock.Anything, mock.MatchedBy(func(t *domain.Tenant) bool {
		return t.ParentID == nil
	})).Return(nil)

	svc := NewTenantService(tenantRepo, newTestEventProducer(), newTestLogger())

	updated, err := svc.Update(context.Background(), "child", UpdateTenantInput{ParentID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
}

func strPtr(s string) *string {
	return &s
}
