package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hello-Vince/crm-system/pkg/health"
	"github.com/Hello-Vince/crm-system/services/gateway/internal/auth"
	"github.com/Hello-Vince/crm-system/services/gateway/internal/config"
	"github.com/Hello-Vince/crm-system/services/gateway/internal/proxy"
)

const testJWTSecret = "test-jwt-secret-for-router-tests"

// testLogger returns a logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serviceEchoServer creates a test server that responds with the service name
// and requested path, allowing tests to verify which backend received the request.
func serviceEchoServer(serviceName string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"service": serviceName,
			"path":    r.URL.Path,
		})
	}))
}

// testRouter holds a fully wired gateway router with echo backend servers.
type testRouter struct {
	handler http.Handler
	servers map[string]*httptest.Server
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()

	services := []string{"identity", "crm", "notification"}

	servers := make(map[string]*httptest.Server)
	for _, name := range services {
		servers[name] = serviceEchoServer(name)
	}

	cfg := &config.Config{
		Environment:            "development",
		JWTSecret:              testJWTSecret,
		RateLimitRPS:           10000,
		RateLimitBurst:         20000,
		CORSAllowedOrigins:     []string{"*"},
		CORSAllowedMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID", "X-User-ID"},
		CORSMaxAge:             3600,
		MetricsAllowedCIDRs:    []string{"127.0.0.0/8", "10.0.0.0/8", "192.168.0.0/16"},
		IdentityServiceURL:     servers["identity"].URL,
		CRMServiceURL:          servers["crm"].URL,
		NotificationServiceURL: servers["notification"].URL,
		ProxyDialTimeout:       5 * time.Second,
		ProxyResponseTimeout:   30 * time.Second,
		ProxyIdleTimeout:       90 * time.Second,
		ProxyMaxIdleConns:      100,
	}

	logger := testLogger()
	sp := proxy.NewServiceProxy(cfg, logger)
	verifier := auth.NewVerifier(testJWTSecret)
	healthHandler := health.NewHandler()
	router := NewRouter(cfg, sp, verifier, healthHandler, logger)

	t.Cleanup(func() {
		for _, s := range servers {
			s.Close()
		}
	})

	return &testRouter{
		handler: router,
		servers: servers,
	}
}

func generateRouterTestToken(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

func validRouterJWT(t *testing.T) string {
	t.Helper()
	return generateRouterTestToken(t, auth.Claims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		Role:   "AGENT",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		},
	})
}

// --- Health Endpoint Tests ---

func TestRouter_HealthLive_Returns200(t *testing.T) {
	tr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	tr.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_HealthReady_Returns200(t *testing.T) {
	tr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	tr.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

// --- Auth Public Route Bypass ---

func TestRouter_AuthLogin_NoAuthRequired(t *testing.T) {
	tr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	tr.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "identity", body["service"])
}

// --- Protected Route Tests ---

func TestRouter_ProtectedRoutes_RequireAuth(t *testing.T) {
	tr := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"GET auth/me", http.MethodGet, "/auth/me"},
		{"GET tenants", http.MethodGet, "/tenants/"},
		{"POST customers", http.MethodPost, "/api/v1/customers"},
		{"GET notifications", http.MethodGet, "/api/v1/notifications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "127.0.0.1:12345"
			rr := httptest.NewRecorder()

			tr.handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code,
				"protected route %s %s should return 401 without auth", tt.method, tt.path)
			assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestRouter_ProtectedRoutes_WithValidJWT_ProxyToCorrectService(t *testing.T) {
	tr := newTestRouter(t)
	token := validRouterJWT(t)

	tests := []struct {
		name            string
		method          string
		path            string
		expectedService string
	}{
		{"GET auth/me", http.MethodGet, "/auth/me", "identity"},
		{"GET tenants", http.MethodGet, "/tenants/", "identity"},
		{"POST customers", http.MethodPost, "/api/v1/customers", "crm"},
		{"GET notifications", http.MethodGet, "/api/v1/notifications", "notification"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			req.RemoteAddr = "127.0.0.1:12345"
			rr := httptest.NewRecorder()

			tr.handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code,
				"expected 200 for authenticated %s %s", tt.method, tt.path)

			var body map[string]string
			err := json.Unmarshal(rr.Body.Bytes(), &body)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedService, body["service"],
				"request should be proxied to %s service", tt.expectedService)
		})
	}
}

// --- 404 Handling ---

func TestRouter_UnknownPath_Returns404(t *testing.T) {
	tr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	tr.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_UnknownAPIPath_WithAuth_Returns404(t *testing.T) {
	tr := newTestRouter(t)
	token := validRouterJWT(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	tr.handler.ServeHTTP(rr, req)

	// chi returns 404 for paths that don't match any route within the group.
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- JWT User Context Forwarding ---

func TestRouter_JWT_ForwardsUserContextHeaders(t *testing.T) {
	headerCapture := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"X-User-ID":    r.Header.Get("X-User-ID"),
			"X-User-Email": r.Header.Get("X-User-Email"),
			"X-User-Role":  r.Header.Get("X-User-Role"),
		})
	}))
	defer headerCapture.Close()

	cfg := &config.Config{
		Environment:            "development",
		JWTSecret:              testJWTSecret,
		RateLimitRPS:           10000,
		RateLimitBurst:         20000,
		CORSAllowedOrigins:     []string{"*"},
		CORSAllowedMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		CORSMaxAge:             3600,
		MetricsAllowedCIDRs:    []string{"127.0.0.0/8"},
		IdentityServiceURL:     headerCapture.URL,
		CRMServiceURL:          headerCapture.URL,
		NotificationServiceURL: headerCapture.URL,
		ProxyDialTimeout:       5 * time.Second,
		ProxyResponseTimeout:   30 * time.Second,
		ProxyIdleTimeout:       90 * time.Second,
		ProxyMaxIdleConns:      100,
	}

	logger := testLogger()
	sp := proxy.NewServiceProxy(cfg, logger)
	verifier := auth.NewVerifier(testJWTSecret)
	healthHandler := health.NewHandler()
	router := NewRouter(cfg, sp, verifier, healthHandler, logger)

	token := generateRouterTestToken(t, auth.Claims{
		UserID: "user-42",
		Email:  "alice@example.com",
		Role:   "TENANT_ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var headers map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &headers))
	assert.Equal(t, "user-42", headers["X-User-ID"])
	assert.Equal(t, "alice@example.com", headers["X-User-Email"])
	assert.Equal(t, "TENANT_ADMIN", headers["X-User-Role"])
}

// --- Expired JWT ---

func TestRouter_ExpiredJWT_Returns401(t *testing.T) {
	tr := newTestRouter(t)

	token := generateRouterTestToken(t, auth.Claims{
		UserID: "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	tr.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")
}

// --- Metrics Endpoint (via router) ---

func TestRouter_MetricsEndpoint_AllowedIP_Returns200(t *testing.T) {
	tr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	tr.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_MetricsEndpoint_BlockedIP_Returns403(t *testing.T) {
	tr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "203.0.113.50:12345"
	rr := httptest.NewRecorder()

	tr.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
