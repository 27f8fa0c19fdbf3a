package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Hello-Vince/crm-system/pkg/httputil"
	"github.com/Hello-Vince/crm-system/pkg/middleware"
	"github.com/Hello-Vince/crm-system/pkg/tenancy"
	"github.com/Hello-Vince/crm-system/pkg/validator"
	"github.com/Hello-Vince/crm-system/services/crm/internal/service"
)

// CustomerHandler handles HTTP requests for the customer directory.
type CustomerHandler struct {
	service *service.CustomerService
	logger  *slog.Logger
}

// NewCustomerHandler creates a new customer HTTP handler.
func NewCustomerHandler(svc *service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{service: svc, logger: logger}
}

// CreateCustomerRequest is the JSON request body for POST /customers.
type CreateCustomerRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=200"`
	Email          string   `json:"email" validate:"required,email"`
	Address        string   `json:"address" validate:"required,min=1"`
	ExtraVisibleTo []string `json:"extra_visible_to,omitempty" validate:"omitempty,dive,uuid"`
}

// UpdateCustomerRequest is the JSON request body for PATCH /customers/{id}.
type UpdateCustomerRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email     *string  `json:"email,omitempty" validate:"omitempty,email"`
	Address   *string  `json:"address,omitempty" validate:"omitempty,min=1"`
	VisibleTo []string `json:"visible_to,omitempty" validate:"omitempty,dive,uuid"`
}

// Create handles POST /customers. The caller's own tenant becomes the
// created-by tenant; a caller with no tenant is rejected with 403.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	creatorTenantID := middleware.TenantIDFromContext(r.Context())

	customer, err := h.service.Create(r.Context(), creatorTenantID, service.CreateCustomerInput{
		Name:           req.Name,
		Email:          req.Email,
		Address:        req.Address,
		ExtraVisibleTo: req.ExtraVisibleTo,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: customer})
}

// Get handles GET /customers/{id}.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scope, isSystemAdmin := scopeFromContext(r)

	customer, err := h.service.Get(r.Context(), id, scope, isSystemAdmin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: customer})
}

// List handles GET /customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, isSystemAdmin := scopeFromContext(r)

	var search *string
	if q := r.URL.Query().Get("search"); q != "" {
		search = &q
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	perPage := 20
	if pp, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && pp > 0 {
		perPage = pp
	}

	customers, total, err := h.service.List(r.Context(), service.ListCustomersInput{
		Search:  search,
		Page:    page,
		PerPage: perPage,
	}, scope, isSystemAdmin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(customers, total, page, perPage))
}

// Update handles PATCH /customers/{id}.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scope, isSystemAdmin := scopeFromContext(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	customer, err := h.service.Update(r.Context(), id, scope, isSystemAdmin, service.UpdateCustomerInput{
		Name:      req.Name,
		Email:     req.Email,
		Address:   req.Address,
		VisibleTo: req.VisibleTo,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: customer})
}

// scopeFromContext derives the visibility scope and system-admin flag from
// the claims the auth middleware already placed on the request context. The
// scope was computed once at login time and baked into the token, so it is
// read here rather than recomputed.
func scopeFromContext(r *http.Request) (scope []string, isSystemAdmin bool) {
	role := middleware.RoleFromContext(r.Context())
	isSystemAdmin = role == string(tenancy.RoleSystemAdmin)
	scope = middleware.VisibleTenantIDsFromContext(r.Context())
	return scope, isSystemAdmin
}
