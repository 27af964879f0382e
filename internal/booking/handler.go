package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medassist/telehealth-platform/internal/appointments"
	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/http/middleware"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

// PatientResolver maps the session account to its patient profile.
type PatientResolver interface {
	GetByAccountID(ctx context.Context, accountID string) (*patients.Patient, error)
}

// Handler exposes the booking endpoint.
type Handler struct {
	workflow *Workflow
	patients PatientResolver
	logger   *logging.Logger
}

// NewHandler creates the booking HTTP handler.
func NewHandler(workflow *Workflow, patients PatientResolver, logger *logging.Logger) *Handler {
	if workflow == nil || patients == nil {
		panic("booking: workflow and patient resolver required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{workflow: workflow, patients: patients, logger: logger}
}

// BookRequest is the booking form posted by a signed-in patient.
type BookRequest struct {
	DoctorID  string   `json:"doctor_id"`
	Date      string   `json:"date"`
	Symptoms  []string `json:"symptoms"`
	Diagnosis string   `json:"diagnosis"`
}

// Book handles POST /appointments/book.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.patients.GetByAccountID(r.Context(), identity.AccountID)
	if err != nil {
		h.logger.Error("failed to resolve patient profile", "account_id", identity.AccountID, "error", err)
		http.Error(w, "patient profile not found", http.StatusForbidden)
		return
	}

	result, err := h.workflow.Book(r.Context(), Request{
		PatientID: patient.ID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Report:    appointments.Report{Symptoms: req.Symptoms, Diagnosis: req.Diagnosis},
	})
	if err != nil {
		h.writeBookError(w, result, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// writeBookError maps workflow failures to HTTP statuses. The partial result
// is included so clients can surface the failed step.
func (h *Handler) writeBookError(w http.ResponseWriter, result *Result, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNoDateSelected), errors.Is(err, ErrNoDiagnosis), errors.Is(err, ErrInvalidDate):
		status = http.StatusBadRequest
	case errors.Is(err, doctors.ErrSlotTaken):
		status = http.StatusConflict
	case errors.Is(err, doctors.ErrDoctorNotFound):
		status = http.StatusNotFound
	default:
		h.logger.Error("booking failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Error string  `json:"error"`
		*Result
	}{Error: err.Error(), Result: result})
}
