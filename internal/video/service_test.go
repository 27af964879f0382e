package video

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medassist/telehealth-platform/internal/accounts"
	"github.com/medassist/telehealth-platform/internal/appointments"
	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

type fakeTokener struct {
	calls [][2]string
	err   error
}

func (f *fakeTokener) GenerateToken(_ context.Context, roomName, identity string) (string, error) {
	f.calls = append(f.calls, [2]string{roomName, identity})
	if f.err != nil {
		return "", f.err
	}
	return "tok-" + roomName, nil
}

type fakeApptStore struct {
	appt *appointments.Appointment
}

func (f *fakeApptStore) GetByID(_ context.Context, id string) (*appointments.Appointment, error) {
	if f.appt != nil && f.appt.ID == id {
		return f.appt, nil
	}
	return nil, appointments.ErrAppointmentNotFound
}

type fakeDoctorResolver struct{ doctor *doctors.Doctor }

func (f *fakeDoctorResolver) GetByAccountID(_ context.Context, accountID string) (*doctors.Doctor, error) {
	if f.doctor != nil && f.doctor.AccountID == accountID {
		return f.doctor, nil
	}
	return nil, doctors.ErrDoctorNotFound
}

type fakePatientResolver struct{ patient *patients.Patient }

func (f *fakePatientResolver) GetByAccountID(_ context.Context, accountID string) (*patients.Patient, error) {
	if f.patient != nil && f.patient.AccountID == accountID {
		return f.patient, nil
	}
	return nil, patients.ErrPatientNotFound
}

func newVideoService(tokens *fakeTokener, date time.Time, now time.Time) *Service {
	svc := NewService(
		tokens,
		&fakeApptStore{appt: &appointments.Appointment{ID: "appt-1", PatientID: "pat-1", DoctorID: "doc-1", Date: date}},
		&fakeDoctorResolver{doctor: &doctors.Doctor{ID: "doc-1", AccountID: "acc-doc", Name: "Dr. Smith"}},
		&fakePatientResolver{patient: &patients.Patient{ID: "pat-1", AccountID: "acc-pat", Name: "Jane Doe"}},
		logging.Default(),
	)
	svc.now = func() time.Time { return now }
	return svc
}

var apptDate = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func TestJoinAsPatient(t *testing.T) {
	tokens := &fakeTokener{}
	svc := newVideoService(tokens, apptDate, apptDate.Add(5*time.Minute))

	join, err := svc.JoinAppointment(context.Background(), "acc-pat", accounts.RolePatient, "appt-1")
	require.NoError(t, err)

	// Room is the appointment ID, identity the profile name.
	assert.Equal(t, "appt-1", join.RoomName)
	assert.Equal(t, "Jane Doe", join.Identity)
	assert.Equal(t, "tok-appt-1", join.Token)
	require.Len(t, tokens.calls, 1)
	assert.Equal(t, [2]string{"appt-1", "Jane Doe"}, tokens.calls[0])
}

func TestJoinAsDoctor(t *testing.T) {
	tokens := &fakeTokener{}
	svc := newVideoService(tokens, apptDate, apptDate)

	join, err := svc.JoinAppointment(context.Background(), "acc-doc", accounts.RoleDoctor, "appt-1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Smith", join.Identity)
}

func TestJoinTooEarly(t *testing.T) {
	tokens := &fakeTokener{}
	svc := newVideoService(tokens, apptDate, apptDate.Add(-time.Minute))

	_, err := svc.JoinAppointment(context.Background(), "acc-pat", accounts.RolePatient, "appt-1")
	assert.ErrorIs(t, err, ErrTooEarly)
	// The gate closes before any token is minted.
	assert.Empty(t, tokens.calls)
}

func TestJoinNotParticipant(t *testing.T) {
	svc := newVideoService(&fakeTokener{}, apptDate, apptDate)

	_, err := svc.JoinAppointment(context.Background(), "acc-stranger", accounts.RolePatient, "appt-1")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestJoinWrongDoctor(t *testing.T) {
	tokens := &fakeTokener{}
	svc := NewService(
		tokens,
		&fakeApptStore{appt: &appointments.Appointment{ID: "appt-1", PatientID: "pat-1", DoctorID: "doc-other", Date: apptDate}},
		&fakeDoctorResolver{doctor: &doctors.Doctor{ID: "doc-1", AccountID: "acc-doc", Name: "Dr. Smith"}},
		&fakePatientResolver{},
		logging.Default(),
	)
	svc.now = func() time.Time { return apptDate }

	_, err := svc.JoinAppointment(context.Background(), "acc-doc", accounts.RoleDoctor, "appt-1")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestJoinUnknownAppointment(t *testing.T) {
	svc := newVideoService(&fakeTokener{}, apptDate, apptDate)

	_, err := svc.JoinAppointment(context.Background(), "acc-pat", accounts.RolePatient, "appt-404")
	assert.ErrorIs(t, err, appointments.ErrAppointmentNotFound)
}

func TestJoinTokenServiceFailure(t *testing.T) {
	tokens := &fakeTokener{err: errors.New("twilio down")}
	svc := newVideoService(tokens, apptDate, apptDate)

	_, err := svc.JoinAppointment(context.Background(), "acc-pat", accounts.RolePatient, "appt-1")
	assert.Error(t, err)
}
