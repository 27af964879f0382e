package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medassist/telehealth-platform/internal/accounts"
	"github.com/medassist/telehealth-platform/internal/http/middleware"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

// Handler exposes appointment listing and report retrieval.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the appointments HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("appointments: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// ListResponse wraps the viewer's appointment views.
type ListResponse struct {
	Appointments []View `json:"appointments"`
	Count        int    `json:"count"`
}

// List handles GET /appointments and returns the viewer's appointments with
// the counterparty appropriate to their role.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	views, err := h.service.ListForViewer(r.Context(), identity.AccountID, accounts.Role(identity.Role))
	if err != nil {
		h.logger.Error("failed to list appointments", "account_id", identity.AccountID, "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Appointments: views, Count: len(views)})
}

// GetReport handles GET /appointments/{appointmentID}/report for the
// assigned doctor.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")
	if appointmentID == "" {
		http.Error(w, "missing appointment id", http.StatusBadRequest)
		return
	}

	report, err := h.service.ReportForDoctor(r.Context(), identity.AccountID, appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthorized):
			http.Error(w, "not authorized", http.StatusForbidden)
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to load report", "appointment_id", appointmentID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
