package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Hello-Vince/crm-system/services/gateway/internal/auth"
)

// trustedHeaders are headers injected by the gateway from verified JWT
// claims. They are stripped from all incoming requests to prevent spoofing,
// then set again by Authenticate once a token has actually been verified.
var trustedHeaders = []string{
	"X-User-ID",
	"X-User-Email",
	"X-User-Role",
	"X-Tenant-ID",
	"X-Visible-Tenant-IDs",
}

type contextKey string

const principalKey contextKey = "gateway_principal"

// Principal is the caller identity extracted from a verified access token.
type Principal struct {
	UserID           string
	Email            string
	Role             string
	TenantID         string
	VisibleTenantIDs []string
}

// PrincipalFromContext returns the principal populated by Authenticate, if
// the request carried a valid token.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// Authenticate verifies an Authorization: Bearer token when one is present
// and stores the resulting Principal in the request context, but never
// rejects the request itself — that is RequireAuth's job. Running
// authentication unconditionally (ahead of route-specific auth
// requirements) lets RateLimit key its token buckets per principal instead
// of per IP for every request that carries a token, including ones on
// routes that don't otherwise require auth.
//
// Security: trusted headers are always stripped from incoming requests to
// prevent clients from spoofing user context. They are only set again from
// a token this middleware itself verified.
func Authenticate(verifier *auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, h := range trustedHeaders {
				r.Header.Del(h)
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				logger.Warn("invalid JWT token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			principal := &Principal{
				UserID:           claims.UserID,
				Email:            claims.Email,
				Role:             claims.Role,
				TenantID:         claims.TenantID,
				VisibleTenantIDs: claims.VisibleTenantIDs,
			}

			if principal.UserID != "" {
				r.Header.Set("X-User-ID", principal.UserID)
			}
			if principal.Email != "" {
				r.Header.Set("X-User-Email", principal.Email)
			}
			if principal.Role != "" {
				r.Header.Set("X-User-Role", principal.Role)
			}
			if principal.TenantID != "" {
				r.Header.Set("X-Tenant-ID", principal.TenantID)
			}
			if len(principal.VisibleTenantIDs) > 0 {
				r.Header.Set("X-Visible-Tenant-IDs", strings.Join(principal.VisibleTenantIDs, ","))
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that Authenticate did not attach a principal
// to. It must run after Authenticate in the middleware chain.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := PrincipalFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") == "" {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
				return
			}
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		})
	}
}

// principalRateLimitKey returns the key RateLimit should bucket on: the
// caller's user ID when authenticated, falling back to client IP.
func principalRateLimitKey(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok && p.UserID != "" {
		return "user:" + p.UserID
	}
	return "ip:" + clientIP(r)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
