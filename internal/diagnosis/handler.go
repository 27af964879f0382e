package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/medassist/telehealth-platform/internal/chatlog"
	"github.com/medassist/telehealth-platform/internal/http/middleware"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

// PatientResolver maps the session account to its patient profile.
type PatientResolver interface {
	GetByAccountID(ctx context.Context, accountID string) (*patients.Patient, error)
}

// HistoryLister reads the patient's chat history.
type HistoryLister interface {
	List(ctx context.Context, patientID string) ([]string, error)
}

// Handler exposes the intake endpoints and the chat history view.
type Handler struct {
	service  *Service
	patients PatientResolver
	history  HistoryLister
	logger   *logging.Logger
}

// NewHandler creates the diagnosis HTTP handler.
func NewHandler(service *Service, patients PatientResolver, history HistoryLister, logger *logging.Logger) *Handler {
	if service == nil || patients == nil {
		panic("diagnosis: service and patient resolver required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, patients: patients, history: history, logger: logger}
}

func (h *Handler) resolvePatient(w http.ResponseWriter, r *http.Request) (*patients.Patient, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	patient, err := h.patients.GetByAccountID(r.Context(), identity.AccountID)
	if err != nil {
		h.logger.Error("failed to resolve patient profile", "account_id", identity.AccountID, "error", err)
		http.Error(w, "patient profile not found", http.StatusForbidden)
		return nil, false
	}
	return patient, true
}

// AnalyzeRequest is the intake form.
type AnalyzeRequest struct {
	UserInput string `json:"user_input"`
}

// Analyze handles POST /intake/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		http.Error(w, "user_input is required", http.StatusBadRequest)
		return
	}

	state, err := h.service.Analyze(r.Context(), patient.ID, req.UserInput)
	if err != nil {
		if errors.Is(err, ErrClassifierUnavailable) {
			http.Error(w, "symptom analysis unavailable", http.StatusBadGateway)
			return
		}
		h.logger.Error("intake analysis failed", "patient_id", patient.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// GetState handles GET /intake/state and returns the cached intake state,
// zero-valued when no analysis has happened.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	state, err := h.service.StateFor(r.Context(), patient.ID)
	if err != nil {
		h.logger.Error("failed to load intake state", "patient_id", patient.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// ChatHistoryResponse carries decoded consultations in append order.
type ChatHistoryResponse struct {
	Consultations []chatlog.Consultation `json:"consultations"`
	Count         int                    `json:"count"`
}

// ChatHistory handles GET /patients/me/chat-history.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}
	if h.history == nil {
		http.Error(w, "chat history unavailable", http.StatusServiceUnavailable)
		return
	}

	messages, err := h.history.List(r.Context(), patient.ID)
	if err != nil {
		h.logger.Error("failed to list chat history", "patient_id", patient.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	consultations := make([]chatlog.Consultation, 0, len(messages))
	for _, msg := range messages {
		consultations = append(consultations, chatlog.Decode(msg))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatHistoryResponse{Consultations: consultations, Count: len(consultations)})
}
