// Package auth verifies access tokens issued by the identity service. The
// crm service never issues tokens itself, so this is a read-only mirror of
// identity's token shape.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the identity service's token claims.
type Claims struct {
	UserID           string   `json:"user_id"`
	Email            string   `json:"email"`
	Role             string   `json:"role"`
	TenantID         string   `json:"tenant_id,omitempty"`
	VisibleTenantIDs []string `json:"visible_tenant_ids,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates access tokens signed by the identity service using the
// platform-wide shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
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
