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
	"github.com/Hello-Vince/crm-system/services/crm/internal/auth"
	"github.com/Hello-Vince/crm-system/services/crm/internal/service"
)

// NewRouter creates a chi router with all crm service routes registered.
func NewRouter(
	customerService *service.CustomerService,
	verifier *auth.Verifier,
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
	r.Use(middleware.PrometheusMetrics("crm"))
	r.Use(middleware.Tracing("crm"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	// Token validator bridging to our local verifier (tokens are issued by
	// the identity service; this service only checks them).
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := verifier.Verify(token)
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

	customerHandler := NewCustomerHandler(customerService, logger)
	r.Route("/api/v1/customers", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", customerHandler.List)
		r.Post("/", customerHandler.Create)
		r.Get("/{id}", customerHandler.Get)
		r.Patch("/{id}", customerHandler.Update)
	})

	// Intra-service enrichment callback. Unauthenticated by design: it is
	// reachable only from the enrichment service, never from outside the
	// platform.
	coordinatesHandler := NewCoordinatesHandler(customerService, logger)
	r.With(ContentTypeJSON).Patch("/internal/customers/{id}/coordinates", coordinatesHandler.Update)

	return r
}
