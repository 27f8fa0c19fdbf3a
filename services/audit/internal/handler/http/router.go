// Package http exposes the audit service's operational surface. Audit has
// no business API: it only ever runs as a Kafka consumer, so this router
// carries health, metrics, and pprof endpoints.
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
)

// NewRouter creates a chi router with the audit service's operational
// endpoints registered.
func NewRouter(healthHandler *health.Handler, logger *slog.Logger, pprofCIDRs []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("audit"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	middleware.RegisterPprof(r, pprofCIDRs, logger)

	return r
}
