package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hello-Vince/crm-system/pkg/health"
	pkgmiddleware "github.com/Hello-Vince/crm-system/pkg/middleware"
	"github.com/Hello-Vince/crm-system/services/gateway/internal/auth"
	"github.com/Hello-Vince/crm-system/services/gateway/internal/config"
	gwmiddleware "github.com/Hello-Vince/crm-system/services/gateway/internal/middleware"
	"github.com/Hello-Vince/crm-system/services/gateway/internal/proxy"
)

// NewRouter creates a chi router with global middleware, health endpoints,
// and proxy routes to the identity, CRM, and notification backends.
//
// Authenticate runs globally, ahead of RateLimit, so that rate limiting can
// key on the caller's principal rather than IP alone even on routes that
// don't themselves require auth. RequireAuth then gates the specific route
// groups that need an authenticated caller.
func NewRouter(cfg *config.Config, sp *proxy.ServiceProxy, verifier *auth.Verifier, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(pkgmiddleware.CORS(pkgmiddleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: cfg.CORSAllowedMethods,
		AllowedHeaders: cfg.CORSAllowedHeaders,
		ExposedHeaders: []string{"X-Correlation-ID", "X-User-ID"},
		MaxAge:         cfg.CORSMaxAge,
		Environment:    cfg.Environment,
	}))
	r.Use(gwmiddleware.Authenticate(verifier, logger))
	r.Use(gwmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics("gateway"))
	r.Use(pkgmiddleware.Tracing("gateway"))
	r.Use(pkgmiddleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	r.Group(func(r chi.Router) {
		r.Use(pkgmiddleware.IPAllowlist(cfg.MetricsAllowedCIDRs, logger))
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	})

	pkgmiddleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	// Identity: login is public, everything else requires a verified token.
	r.Route("/auth", func(r chi.Router) {
		r.Handle("/login", sp.Handler("identity"))
		r.Group(func(r chi.Router) {
			r.Use(gwmiddleware.RequireAuth())
			r.Handle("/me", sp.Handler("identity"))
		})
	})

	r.Route("/tenants", func(r chi.Router) {
		r.Use(gwmiddleware.RequireAuth())
		r.Handle("/", sp.Handler("identity"))
		r.Handle("/*", sp.Handler("identity"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(gwmiddleware.RequireAuth())

		r.Handle("/customers", sp.Handler("crm"))
		r.Handle("/customers/*", sp.Handler("crm"))

		r.Handle("/notifications", sp.Handler("notification"))
		r.Handle("/notifications/*", sp.Handler("notification"))
	})

	return r
}
