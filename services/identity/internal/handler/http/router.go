package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hello-Vince/crm-system/pkg/health"
	"github.com/Hello-Vince/crm-system/pkg/middleware"
	"github.com/Hello-Vince/crm-system/services/identity/internal/auth"
	"github.com/Hello-Vince/crm-system/services/identity/internal/service"
)

// NewRouter creates a chi router with all identity service routes registered.
func NewRouter(
	authService *service.AuthService,
	tenantService *service.TenantService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("identity"))
	r.Use(middleware.Tracing("identity"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.Verify(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:           claims.UserID,
			Email:            claims.Email,
			Role:             claims.Role,
			TenantID:         claims.TenantID,
			VisibleTenantIDs: claims.VisibleTenantIDs,
		}, nil
	}

	authHandler := NewAuthHandler(authService, logger)
	r.Route("/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Get("/me", authHandler.Me)
		})
	})

	tenantHandler := NewTenantHandler(tenantService, logger)
	r.Route("/tenants", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole("SYSTEM_ADMIN", "TENANT_ADMIN"))

		r.Get("/", tenantHandler.List)
		r.Post("/", tenantHandler.Create)
		r.Get("/{id}", tenantHandler.Get)
		r.Patch("/{id}", tenantHandler.Update)
	})

	return r
}
