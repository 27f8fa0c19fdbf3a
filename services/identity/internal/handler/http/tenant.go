package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Hello-Vince/crm-system/pkg/httputil"
	"github.com/Hello-Vince/crm-system/pkg/validator"
	"github.com/Hello-Vince/crm-system/services/identity/internal/service"
)

// TenantHandler handles HTTP requests for tenant hierarchy endpoints.
type TenantHandler struct {
	service *service.TenantService
	logger  *slog.Logger
}

// NewTenantHandler creates a new tenant HTTP handler.
func NewTenantHandler(svc *service.TenantService, logger *slog.Logger) *TenantHandler {
	return &TenantHandler{service: svc, logger: logger}
}

// CreateTenantRequest is the JSON request body for POST /tenants.
type CreateTenantRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=200"`
	ParentID *string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateTenantRequest is the JSON request body for PATCH /tenants/{id}.
type UpdateTenantRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	ParentID *string `json:"parent_id,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// Create handles POST /tenants.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateTenantRequest
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

	tenant, err := h.service.Create(r.Context(), service.CreateTenantInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: tenant})
}

// Get handles GET /tenants/{id}.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tenant, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tenant})
}

// List handles GET /tenants.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tenants})
}

// Update handles PATCH /tenants/{id}.
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateTenantRequest
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

	tenant, err := h.service.Update(r.Context(), id, service.UpdateTenantInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		Active:   req.Active,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tenant})
}
