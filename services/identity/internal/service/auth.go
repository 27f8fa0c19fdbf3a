package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/services/identity/internal/auth"
	"github.com/Hello-Vince/crm-system/services/identity/internal/domain"
	"github.com/Hello-Vince/crm-system/services/identity/internal/repository"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// LoginInput holds the parameters for a login attempt.
type LoginInput struct {
	Email    string
	Password string
}

// AuthenticatedUser is the response shape for a successful login or a
// /auth/me lookup.
type AuthenticatedUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	TenantID   string `json:"tenant_id,omitempty"`
	TenantName string `json:"tenant_name,omitempty"`
}

// AuthService authenticates principals and issues tokens.
type AuthService struct {
	userRepo   repository.UserRepository
	tenantRepo repository.TenantRepository
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tenantRepo repository.TenantRepository,
	jwtManager *auth.JWTManager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Login authenticates email/password and returns a signed token plus the
// authenticated user. Bad email and bad password both yield ErrUnauthorized
// so login never reveals whether an account exists; a disabled account
// yields ErrForbidden only once credentials have already checked out.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *AuthenticatedUser, error) {
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, apperrors.Unauthorized("invalid email or password")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, apperrors.Unauthorized("invalid email or password")
	}

	if !user.IsActive {
		return "", nil, apperrors.Forbidden("account is disabled")
	}

	principal, tenantName, err := s.buildPrincipal(ctx, user)
	if err != nil {
		return "", nil, err
	}

	token, err := s.jwtManager.Issue(principal)
	if err != nil {
		return "", nil, apperrors.Internal(err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))

	return token, toAuthenticatedUser(user, tenantName), nil
}

// Me returns the current state of the authenticated principal. The visible
// tenant set is not recomputed here: it reflects what was baked into the
// token at login time, per spec's "cache the closure at login" design.
func (s *AuthService) Me(ctx context.Context, userID string) (*AuthenticatedUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var tenantName string
	if user.TenantID != nil {
		tenant, err := s.tenantRepo.GetByID(ctx, *user.TenantID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if tenant != nil {
			tenantName = tenant.Name
		}
	}

	return toAuthenticatedUser(user, tenantName), nil
}

// buildPrincipal computes the principal's visibility scope per spec §4.4:
// SYSTEM_ADMIN gets an empty (universal) scope, TENANT_ADMIN gets its own
// tenant plus every descendant, USER gets just its own tenant.
func (s *AuthService) buildPrincipal(ctx context.Context, user *domain.User) (tenancy.Principal, string, error) {
	principal := tenancy.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
	}

	var tenantName string
	if user.TenantID != nil {
		tenant, err := s.tenantRepo.GetByID(ctx, *user.TenantID)
		if err != nil {
			return principal, "", err
		}
		tenantName = tenant.Name

		switch user.Role {
		case tenancy.RoleTenantAdmin:
			descendants, err := s.tenantRepo.Descendants(ctx, *user.TenantID)
			if err != nil {
				return principal, "", err
			}
			principal.VisibleTenantIDs = append([]string{*user.TenantID}, descendants...)
		case tenancy.RoleUser:
			principal.VisibleTenantIDs = []string{*user.TenantID}
		}
	}

	// SYSTEM_ADMIN keeps a nil VisibleTenantIDs, the universal-scope sentinel
	// pkg/visibility.Scope treats as "no filter" for that role.
	return principal, tenantName, nil
}

func toAuthenticatedUser(u *domain.User, tenantName string) *AuthenticatedUser {
	out := &AuthenticatedUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
	}
	if u.TenantID != nil {
		out.TenantID = *u.TenantID
		out.TenantName = tenantName
	}
	return out
}

// HashPassword hashes a plaintext password with bcrypt, exposed for seeding
// and tests.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
