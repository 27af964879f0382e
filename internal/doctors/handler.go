package doctors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medassist/telehealth-platform/pkg/logging"
)

// Handler exposes doctor lookup and search endpoints.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates the doctors HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("doctors: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns the doctor routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{doctorID}", h.GetByID)
	return r
}

// GetByID handles GET /doctors/{doctorID}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	doc, err := h.repo.GetByID(r.Context(), doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get doctor", "doctor_id", doctorID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// ListResponse wraps a doctor listing.
type ListResponse struct {
	Doctors []*Doctor `json:"doctors"`
	Count   int       `json:"count"`
}

// List handles GET /doctors. A `q` parameter searches by name or
// specialization; a `specialization` parameter (comma-separated) filters by
// exact specialization. Without parameters the result is empty.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		docs []*Doctor
		err  error
	)
	switch {
	case r.URL.Query().Get("q") != "":
		docs, err = h.repo.Search(r.Context(), r.URL.Query().Get("q"))
	case r.URL.Query().Get("specialization") != "":
		specs := splitParam(r.URL.Query().Get("specialization"))
		docs, err = h.repo.ListBySpecializations(r.Context(), specs)
	}
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Doctors: docs, Count: len(docs)})
}

func splitParam(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
