package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medassist/telehealth-platform/internal/accounts"
	"github.com/medassist/telehealth-platform/internal/appointments"
	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

var (
	// ErrTooEarly signals the join gate has not opened yet.
	ErrTooEarly = errors.New("video: appointment has not started yet")
	// ErrNotParticipant signals the caller is not part of the appointment.
	ErrNotParticipant = errors.New("video: not a participant of this appointment")
)

// Tokener issues room access tokens.
type Tokener interface {
	GenerateToken(ctx context.Context, roomName, identity string) (string, error)
}

// AppointmentStore resolves the appointment being joined.
type AppointmentStore interface {
	GetByID(ctx context.Context, id string) (*appointments.Appointment, error)
}

// DoctorResolver maps the session account to its doctor profile.
type DoctorResolver interface {
	GetByAccountID(ctx context.Context, accountID string) (*doctors.Doctor, error)
}

// PatientResolver maps the session account to its patient profile.
type PatientResolver interface {
	GetByAccountID(ctx context.Context, accountID string) (*patients.Patient, error)
}

// Service issues call room access for appointments. The room name is the
// appointment ID, so both participants land in the same room.
type Service struct {
	tokens       Tokener
	appointments AppointmentStore
	doctors      DoctorResolver
	patients     PatientResolver
	logger       *logging.Logger
	now          func() time.Time
}

// NewService constructs a video service.
func NewService(tokens Tokener, appts AppointmentStore, doctors DoctorResolver, patients PatientResolver, logger *logging.Logger) *Service {
	if tokens == nil || appts == nil {
		panic("video: token client and appointment store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		tokens:       tokens,
		appointments: appts,
		doctors:      doctors,
		patients:     patients,
		logger:       logger,
		now:          time.Now,
	}
}

// Join is a granted room access.
type Join struct {
	RoomName string `json:"room_name"`
	Identity string `json:"identity"`
	Token    string `json:"token"`
}

// JoinAppointment verifies the caller participates in the appointment and
// that the join gate is open, then issues a room token.
func (s *Service) JoinAppointment(ctx context.Context, accountID string, role accounts.Role, appointmentID string) (*Join, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	var identity string
	switch role {
	case accounts.RoleDoctor:
		profile, err := s.doctors.GetByAccountID(ctx, accountID)
		if err != nil || profile.ID != appt.DoctorID {
			return nil, ErrNotParticipant
		}
		identity = profile.Name
	default:
		profile, err := s.patients.GetByAccountID(ctx, accountID)
		if err != nil || profile.ID != appt.PatientID {
			return nil, ErrNotParticipant
		}
		identity = profile.Name
	}

	if !appointments.CanJoin(appt, s.now()) {
		return nil, ErrTooEarly
	}

	token, err := s.tokens.GenerateToken(ctx, appt.ID, identity)
	if err != nil {
		return nil, fmt.Errorf("video: generate token: %w", err)
	}

	s.logger.Info("call room joined", "appointment_id", appt.ID, "role", role)
	return &Join{RoomName: appt.ID, Identity: identity, Token: token}, nil
}
