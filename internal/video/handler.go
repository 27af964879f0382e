package video

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medassist/telehealth-platform/internal/accounts"
	"github.com/medassist/telehealth-platform/internal/appointments"
	"github.com/medassist/telehealth-platform/internal/http/middleware"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

// Handler exposes the call join endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the video HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("video: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Join handles POST /appointments/{appointmentID}/join.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
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

	join, err := h.service.JoinAppointment(r.Context(), identity.AccountID, accounts.Role(identity.Role), appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, ErrNotParticipant):
			http.Error(w, "not a participant", http.StatusForbidden)
		case errors.Is(err, ErrTooEarly):
			http.Error(w, "appointment has not started yet", http.StatusConflict)
		default:
			h.logger.Error("failed to join call", "appointment_id", appointmentID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(join)
}
