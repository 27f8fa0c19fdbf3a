package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/services/identity/internal/auth"
	"github.com/Hello-Vince/crm-system/services/identity/internal/domain"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockTenantRepository struct {
	mock.Mock
}

func (m *mockTenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*domain.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTenantRepository) Update(ctx context.Context, t *domain.Tenant) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	if t := args.Get(0); t != nil {
		return t.([]domain.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTenantRepository) Descendants(ctx context.Context, rootID string) ([]string, error) {
	args := m.Called(ctx, rootID)
	if d := args.Get(0); d != nil {
		return d.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTenantRepository) Nodes(ctx context.Context) ([]tenancy.Node, error) {
	args := m.Called(ctx)
	if n := args.Get(0); n != nil {
		return n.([]tenancy.Node), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing-only!!!", 15*time.Minute)
}

func hashedPassword(t *testing.T, plaintext string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Login_Success(t *testing.T) {
	tenantID := "tenant-1"
	user := &domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hashedPassword(t, "correct-password"),
		FirstName:    "Alice",
		LastName:     "Smith",
		Role:         domain.RoleUser,
		TenantID:     &tenantID,
		IsActive:     true,
	}
	tenant := &domain.Tenant{ID: tenantID, Name: "Acme", Active: true}

	userRepo := new(mockUserRepository)
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	tenantRepo := new(mockTenantRepository)
	tenantRepo.On("GetByID", mock.Anything, tenantID).Return(tenant, nil)

	svc := NewAuthService(userRepo, tenantRepo, newTestJWTManager(), newTestLogger())

	token, authed, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "user-1", authed.ID)
	assert.Equal(t, "Acme", authed.TenantName)

	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_UnknownEmailAndBadPassword_BothUnauthorized(t *testing.T) {
	userRepo := new(mockUserRepository)
	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	tenantRepo := new(mockTenantRepository)
	svc := NewAuthService(userRepo, tenantRepo, newTestJWTManager(), newTestLogger())

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	user := &domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hashedPassword(t, "correct-password"),
		IsActive:     true,
	}
	userRepo2 := new(mockUserRepository)
	userRepo2.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	svc2 := NewAuthService(userRepo2, tenantRepo, newTestJWTManager(), newTestLogger())

	_, _, err = svc2.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Login_DisabledAccount_Forbidden(t *testing.T) {
	user := &domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hashedPassword(t, "correct-password"),
		IsActive:     false,
	}
	userRepo := new(mockUserRepository)
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	svc := NewAuthService(userRepo, new(mockTenantRepository), newTestJWTManager(), newTestLogger())

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct-password"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAuthService_Login_TenantAdmin_VisibleTenantIDsIncludesDescendants(t *testing.T) {
	tenantID := "tenant-1"
	user := &domain.User{
		ID:           "admin-1",
		Email:        "admin@example.com",
		PasswordHash: hashedPassword(t, "correct-password"),
		Role:         domain.RoleTenantAdmin,
		TenantID:     &tenantID,
		IsActive:     true,
	}
	tenant := &domain.Tenant{ID: tenantID, Name: "Acme", Active: true}

	userRepo := new(mockUserRepository)
	userRepo.On("GetByEmail", mock.Anything, "admin@example.com").Return(user, nil)

	tenantRepo := new(mockTenantRepository)
	tenantRepo.On("GetByID", mock.Anything, tenantID).Return(tenant, nil)
	tenantRepo.On("Descendants", mock.Anything, tenantID).Return([]string{"tenant-2", "tenant-3"}, nil)

	jwtManager := newTestJWTManager()
	svc := NewAuthService(userRepo, tenantRepo, jwtManager, newTestLogger())

	token, _, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "correct-password"})
	require.NoError(t, err)

	claims, err := jwtManager.Verify(token)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tenant-1", "tenant-2", "tenant-3"}, claims.VisibleTenantIDs)
}
