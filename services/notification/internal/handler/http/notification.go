package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Hello-Vince/crm-system/pkg/httputil"
	"github.com/Hello-Vince/crm-system/pkg/middleware"
	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/services/notification/internal/service"
)

// NotificationHandler handles HTTP requests for the notification inbox.
type NotificationHandler struct {
	service *service.NotificationService
	logger  *slog.Logger
}

// NewNotificationHandler creates a new notification HTTP handler.
func NewNotificationHandler(svc *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: svc, logger: logger}
}

// List handles GET /api/v1/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, isSystemAdmin := scopeFromContext(r)

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	perPage := 20
	if pp, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && pp > 0 {
		perPage = pp
	}

	notifications, total, err := h.service.List(r.Context(), service.ListNotificationsInput{
		Page:    page,
		PerPage: perPage,
	}, scope, isSystemAdmin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(notifications, total, page, perPage))
}

// MarkAsRead handles PUT /api/v1/notifications/{id}/read.
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scope, isSystemAdmin := scopeFromContext(r)
	userID := middleware.UserIDFromContext(r.Context())

	notification, err := h.service.MarkRead(r.Context(), id, userID, scope, isSystemAdmin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: notification})
}

// scopeFromContext derives the visibility scope and system-admin flag from
// the claims the auth middleware already placed on the request context.
func scopeFromContext(r *http.Request) (scope []string, isSystemAdmin bool) {
	role := middleware.RoleFromContext(r.Context())
	isSystemAdmin = role == string(tenancy.RoleSystemAdmin)
	scope = middleware.VisibleTenantIDsFromContext(r.Context())
	return scope, isSystemAdmin
}
