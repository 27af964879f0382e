package accounts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medassist/telehealth-platform/internal/http/middleware"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

// Handler exposes signup, sign-in, and session endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the accounts HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("accounts: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// SignupPatient handles POST /auth/signup/patient.
func (h *Handler) SignupPatient(w http.ResponseWriter, r *http.Request) {
	var req SignupPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.service.SignupPatient(r.Context(), req)
	if err != nil {
		h.writeSignupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(profile)
}

// SignupDoctor handles POST /auth/signup/doctor.
func (h *Handler) SignupDoctor(w http.ResponseWriter, r *http.Request) {
	var req SignupDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.service.SignupDoctor(r.Context(), req)
	if err != nil {
		h.writeSignupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(profile)
}

func (h *Handler) writeSignupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrEmailTaken) {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}
	h.logger.Error("signup failed", "error", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// SignInRequest is the sign-in form.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse carries the session token and the signed-in account.
type SignInResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}

// SignIn handles POST /auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, acct, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		h.logger.Error("sign-in failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SignInResponse{Token: token, Account: acct})
}

// SignOut handles POST /auth/signout. The session token is revoked; repeated
// sign-outs with the same token succeed.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.SignOut(r.Context(), identity.Token); err != nil {
		h.logger.Error("sign-out failed", "account_id", identity.AccountID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me and returns the signed-in account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	acct, err := h.service.CurrentAccount(r.Context(), identity.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load account", "account_id", identity.AccountID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acct)
}
