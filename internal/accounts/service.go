package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

// AccountStore is the account persistence the service depends on.
type AccountStore interface {
	Create(ctx context.Context, p CreateParams) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
}

// PatientStore creates patient profiles at signup.
type PatientStore interface {
	Create(ctx context.Context, p patients.CreateParams) (*patients.Patient, error)
}

// DoctorStore creates doctor profiles at signup.
type DoctorStore interface {
	Create(ctx context.Context, p doctors.CreateParams) (*doctors.Doctor, error)
}

// Service implements signup, sign-in, and session lifecycle.
type Service struct {
	accounts AccountStore
	patients PatientStore
	doctors  DoctorStore
	sessions *SessionManager
	logger   *logging.Logger
}

// NewService constructs an accounts service.
func NewService(accounts AccountStore, patients PatientStore, doctors DoctorStore, sessions *SessionManager, logger *logging.Logger) *Service {
	if accounts == nil || sessions == nil {
		panic("accounts: account store and session manager required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		accounts: accounts,
		patients: patients,
		doctors:  doctors,
		sessions: sessions,
		logger:   logger,
	}
}

// SignupPatientRequest carries the patient signup form.
type SignupPatientRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Password    string   `json:"password"`
	Allergies   []string `json:"allergies"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
}

// Validate enforces the signup form contracts.
func (r *SignupPatientRequest) Validate() error {
	if len(strings.TrimSpace(r.Name)) < 2 {
		return errors.New("name must be at least 2 characters")
	}
	return validateCommon(r.Email, r.Phone, r.Password)
}

// SignupDoctorRequest carries the doctor signup form.
type SignupDoctorRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Password       string   `json:"password"`
	Specialization string   `json:"specialization"`
	AvailableDates []string `json:"available_dates"`
}

// Validate enforces the signup form contracts.
func (r *SignupDoctorRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Specialization) == "" {
		return errors.New("specialization is required")
	}
	return validateCommon(r.Email, r.Phone, r.Password)
}

func validateCommon(email, phone, password string) error {
	if !strings.Contains(email, "@") {
		return errors.New("invalid email address")
	}
	if !phonePattern.MatchString(phone) {
		return errors.New("phone number must be 10 to 15 digits")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// SignupPatient creates an account with the patient role and its profile.
func (s *Service) SignupPatient(ctx context.Context, req SignupPatientRequest) (*patients.Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	acct, err := s.createAccount(ctx, req.Email, req.Name, req.Phone, req.Password, RolePatient)
	if err != nil {
		return nil, err
	}
	profile, err := s.patients.Create(ctx, patients.CreateParams{
		AccountID:   acct.ID,
		Name:        acct.Name,
		Email:       acct.Email,
		Phone:       req.Phone,
		Allergies:   req.Allergies,
		Conditions:  req.Conditions,
		Medications: req.Medications,
	})
	if err != nil {
		return nil, fmt.Errorf("accounts: create patient profile: %w", err)
	}
	s.logger.Info("patient signed up", "account_id", acct.ID, "patient_id", profile.ID)
	return profile, nil
}

// SignupDoctor creates an account with the doctor role and its profile.
func (s *Service) SignupDoctor(ctx context.Context, req SignupDoctorRequest) (*doctors.Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	acct, err := s.createAccount(ctx, req.Email, req.Name, req.Phone, req.Password, RoleDoctor)
	if err != nil {
		return nil, err
	}
	profile, err := s.doctors.Create(ctx, doctors.CreateParams{
		AccountID:      acct.ID,
		Name:           acct.Name,
		Email:          acct.Email,
		Phone:          req.Phone,
		Specialization: req.Specialization,
		AvailableDates: req.AvailableDates,
	})
	if err != nil {
		return nil, fmt.Errorf("accounts: create doctor profile: %w", err)
	}
	s.logger.Info("doctor signed up", "account_id", acct.ID, "doctor_id", profile.ID, "specialization", profile.Specialization)
	return profile, nil
}

func (s *Service) createAccount(ctx context.Context, email, name, phone, password string, role Role) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}
	return s.accounts.Create(ctx, CreateParams{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		Phone:        phone,
		Role:         role,
		PasswordHash: string(hash),
	})
}

// SignIn checks credentials and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *Account, error) {
	acct, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.sessions.Issue(acct)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("account signed in", "account_id", acct.ID, "role", acct.Role)
	return token, acct, nil
}

// SignOut revokes the session token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// CurrentAccount loads the account for a validated session.
func (s *Service) CurrentAccount(ctx context.Context, accountID string) (*Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}
