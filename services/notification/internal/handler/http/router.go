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
	"github.com/Hello-Vince/crm-system/services/notification/internal/auth"
	"github.com/Hello-Vince/crm-system/services/notification/internal/service"
)

// NewRouter creates a chi router with all notification service routes registered.
func NewRouter(
	notificationService *service.NotificationService,
	verifier *auth.Verifier,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("notification"))
	r.Use(middleware.Tracing("notification"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

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

	notificationHandler := NewNotificationHandler(notificationService, logger)
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", notificationHandler.List)
		r.Put("/{id}/read", notificationHandler.MarkAsRead)
	})

	return r
}
