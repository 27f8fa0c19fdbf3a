package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Hello-Vince/crm-system/pkg/tenancy"
)

// Claims represents the JWT claims for a token: the full Principal plus the
// registered issued-at/expiry pair. There is exactly one token kind in this
// platform -- no refresh token -- since the only stateful thing a refresh
// flow would protect is revocation, which this system doesn't offer.
type Claims struct {
	UserID           string   `json:"user_id"`
	Email            string   `json:"email"`
	Role             string   `json:"role"`
	TenantID         string   `json:"tenant_id,omitempty"`
	VisibleTenantIDs []string `json:"visible_tenant_ids,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager creates a JWT manager with the given secret and token TTL.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

// Issue encodes a principal into a signed token with iat and exp = now+ttl.
func (m *JWTManager) Issue(p tenancy.Principal) (string, error) {
	now := time.Now().UTC()
	var tenantID string
	if p.TenantID != nil {
		tenantID = *p.TenantID
	}

	claims := &Claims{
		UserID:           p.UserID,
		Email:            p.Email,
		Role:             string(p.Role),
		TenantID:         tenantID,
		VisibleTenantIDs: p.VisibleTenantIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    "identity-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Returns an
// error for an expired token, a bad signature, or a malformed shape.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// Principal reconstructs the tenancy.Principal this token's claims describe.
func (c *Claims) Principal() tenancy.Principal {
	var tenantID *string
	if c.TenantID != "" {
		id := c.TenantID
		tenantID = &id
	}
	return tenancy.Principal{
		UserID:           c.UserID,
		Email:            c.Email,
		Role:             tenancy.Role(c.Role),
		TenantID:         tenantID,
		VisibleTenantIDs: c.VisibleTenantIDs,
	}
}
