package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
	"github.com/Hello-Vince/crm-system/pkg/httputil"
	"github.com/Hello-Vince/crm-system/services/crm/internal/service"
)

// CoordinatesHandler handles the intra-service enrichment callback. It is
// mounted unauthenticated: nothing outside this platform's own services can
// reach it, and the caller (the enrichment service) holds no user token.
type CoordinatesHandler struct {
	service *service.CustomerService
	logger  *slog.Logger
}

// NewCoordinatesHandler creates a new coordinates HTTP handler.
func NewCoordinatesHandler(svc *service.CustomerService, logger *slog.Logger) *CoordinatesHandler {
	return &CoordinatesHandler{service: svc, logger: logger}
}

// updateCoordinatesRequest is the JSON request body for
// PATCH /internal/customers/{id}/coordinates.
type updateCoordinatesRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Update handles PATCH /internal/customers/{id}/coordinates. It is
// idempotent and last-writer-wins: repeated calls with the same or different
// coordinates simply overwrite the previous value.
func (h *CoordinatesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<10)

	var req updateCoordinatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "latitude and longitude are required"})
		return
	}

	err := h.service.UpdateCoordinates(r.Context(), id, *req.Latitude, *req.Longitude)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		h.logger.ErrorContext(r.Context(), "update coordinates failed", slog.String("customer_id", id), slog.String("error", err.Error()))
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"customer_id": id,
		"latitude":    *req.Latitude,
		"longitude":   *req.Longitude,
	})
}
