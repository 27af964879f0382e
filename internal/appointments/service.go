package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medassist/telehealth-platform/internal/accounts"
	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

// ErrNotAuthorized signals the viewer is not a participant of the appointment
// or lacks the role the operation requires.
var ErrNotAuthorized = errors.New("appointments: not authorized")

// Store is the appointment persistence the service depends on.
type Store interface {
	GetByID(ctx context.Context, id string) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*Appointment, error)
}

// DoctorDirectory resolves doctor profiles for enrichment.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id string) (*doctors.Doctor, error)
	GetByAccountID(ctx context.Context, accountID string) (*doctors.Doctor, error)
}

// PatientDirectory resolves patient profiles for enrichment.
type PatientDirectory interface {
	GetByID(ctx context.Context, id string) (*patients.Patient, error)
	GetByAccountID(ctx context.Context, accountID string) (*patients.Patient, error)
}

// View is one appointment enriched with the counterparty's profile. A
// counterparty that cannot be resolved is left nil rather than dropping the
// appointment, so consumers must check before rendering.
type View struct {
	*Appointment
	Doctor  *doctors.Doctor   `json:"doctor,omitempty"`
	Patient *patients.Patient `json:"patient,omitempty"`
	CanJoin bool              `json:"can_join"`
}

// Service builds role-appropriate appointment views.
type Service struct {
	store    Store
	doctors  DoctorDirectory
	patients PatientDirectory
	logger   *logging.Logger
	now      func() time.Time
}

// NewService constructs an appointments service.
func NewService(store Store, doctors DoctorDirectory, patients PatientDirectory, logger *logging.Logger) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		doctors:  doctors,
		patients: patients,
		logger:   logger,
		now:      time.Now,
	}
}

// CanJoin reports whether the join gate is open: wall-clock time at or past
// the appointment date.
func CanJoin(a *Appointment, now time.Time) bool {
	return !now.Before(a.Date)
}

// ListForViewer fetches the viewer's appointments by role and enriches each
// with the counterparty profile. The join gate is evaluated at call time.
func (s *Service) ListForViewer(ctx context.Context, accountID string, role accounts.Role) ([]View, error) {
	now := s.now()
	if role == accounts.RoleDoctor {
		profile, err := s.doctors.GetByAccountID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("appointments: resolve doctor profile: %w", err)
		}
		appts, err := s.store.ListByDoctor(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		views := make([]View, 0, len(appts))
		for _, a := range appts {
			view := View{Appointment: a, CanJoin: CanJoin(a, now)}
			if patient, err := s.patients.GetByID(ctx, a.PatientID); err == nil {
				view.Patient = patient
			} else {
				s.logger.Warn("appointment counterparty unresolved", "appointment_id", a.ID, "patient_id", a.PatientID, "error", err)
			}
			views = append(views, view)
		}
		return views, nil
	}

	profile, err := s.patients.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("appointments: resolve patient profile: %w", err)
	}
	appts, err := s.store.ListByPatient(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(appts))
	for _, a := range appts {
		view := View{Appointment: a, CanJoin: CanJoin(a, now)}
		if doctor, err := s.doctors.GetByID(ctx, a.DoctorID); err == nil {
			view.Doctor = doctor
		} else {
			s.logger.Warn("appointment counterparty unresolved", "appointment_id", a.ID, "doctor_id", a.DoctorID, "error", err)
		}
		views = append(views, view)
	}
	return views, nil
}

// ReportForDoctor returns the visit report for an appointment assigned to the
// calling doctor. Missing or unparsable payloads come back as an unavailable
// placeholder instead of an error.
func (s *Service) ReportForDoctor(ctx context.Context, accountID, appointmentID string) (ReportView, error) {
	profile, err := s.doctors.GetByAccountID(ctx, accountID)
	if err != nil {
		return ReportView{}, ErrNotAuthorized
	}
	appt, err := s.store.GetByID(ctx, appointmentID)
	if err != nil {
		return ReportView{}, err
	}
	if appt.DoctorID != profile.ID {
		return ReportView{}, ErrNotAuthorized
	}
	return ParseReport(appt.Report), nil
}
