package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

type fakeAccountStore struct {
	byEmail map[string]*Account
	byID    map[string]*Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{byEmail: map[string]*Account{}, byID: map[string]*Account{}}
}

func (f *fakeAccountStore) Create(_ context.Context, p CreateParams) (*Account, error) {
	if _, exists := f.byEmail[p.Email]; exists {
		return nil, ErrEmailTaken
	}
	acct := &Account{
		ID:           uuid.NewString(),
		Email:        p.Email,
		Name:         p.Name,
		Phone:        p.Phone,
		Role:         p.Role,
		PasswordHash: p.PasswordHash,
		CreatedAt:    time.Now(),
	}
	f.byEmail[acct.Email] = acct
	f.byID[acct.ID] = acct
	return acct, nil
}

func (f *fakeAccountStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	acct, ok := f.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeAccountStore) GetByID(_ context.Context, id string) (*Account, error) {
	acct, ok := f.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

type fakePatientStore struct {
	created []patients.CreateParams
}

func (f *fakePatientStore) Create(_ context.Context, p patients.CreateParams) (*patients.Patient, error) {
	f.created = append(f.created, p)
	return &patients.Patient{ID: "pat-1", AccountID: p.AccountID, Name: p.Name, Email: p.Email}, nil
}

type fakeDoctorStore struct {
	created []doctors.CreateParams
}

func (f *fakeDoctorStore) Create(_ context.Context, p doctors.CreateParams) (*doctors.Doctor, error) {
	f.created = append(f.created, p)
	return &doctors.Doctor{ID: "doc-1", AccountID: p.AccountID, Name: p.Name, Specialization: p.Specialization}, nil
}

func newTestService(t *testing.T) (*Service, *fakeAccountStore, *fakePatientStore, *fakeDoctorStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	accts := newFakeAccountStore()
	pats := &fakePatientStore{}
	docs := &fakeDoctorStore{}
	svc := NewService(accts, pats, docs, NewSessionManager("test-secret", time.Hour, client), logging.Default())
	return svc, accts, pats, docs
}

func patientSignup() SignupPatientRequest {
	return SignupPatientRequest{
		Name:      "Jane Doe",
		Email:     "Jane@Example.com",
		Phone:     "5551234567",
		Password:  "supersecret",
		Allergies: []string{"penicillin"},
	}
}

func TestSignupPatient(t *testing.T) {
	svc, accts, pats, _ := newTestService(t)

	profile, err := svc.SignupPatient(context.Background(), patientSignup())
	require.NoError(t, err)
	assert.Equal(t, "pat-1", profile.ID)

	// Email is normalized before storage.
	acct, err := accts.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, RolePatient, acct.Role)

	// Password is stored hashed, never verbatim.
	assert.NotEqual(t, "supersecret", acct.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("supersecret")))

	require.Len(t, pats.created, 1)
	assert.Equal(t, acct.ID, pats.created[0].AccountID)
	assert.Equal(t, []string{"penicillin"}, pats.created[0].Allergies)
}

func TestSignupDoctor(t *testing.T) {
	svc, accts, _, docs := newTestService(t)

	req := SignupDoctorRequest{
		Name:           "Dr. Smith",
		Email:          "smith@example.com",
		Phone:          "5559876543",
		Password:       "supersecret",
		Specialization: "Cardiology",
		AvailableDates: []string{"2024-06-01T09:00:00Z"},
	}
	profile, err := svc.SignupDoctor(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", profile.Specialization)

	acct, err := accts.GetByEmail(context.Background(), "smith@example.com")
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, acct.Role)

	require.Len(t, docs.created, 1)
	assert.Equal(t, []string{"2024-06-01T09:00:00Z"}, docs.created[0].AvailableDates)
}

func TestSignupValidation(t *testing.T) {
	svc, _, pats, _ := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*SignupPatientRequest)
	}{
		{"short name", func(r *SignupPatientRequest) { r.Name = "J" }},
		{"bad email", func(r *SignupPatientRequest) { r.Email = "not-an-email" }},
		{"short phone", func(r *SignupPatientRequest) { r.Phone = "12345" }},
		{"non-numeric phone", func(r *SignupPatientRequest) { r.Phone = "555-123-4567" }},
		{"short password", func(r *SignupPatientRequest) { r.Password = "short" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := patientSignup()
			tc.mutate(&req)
			_, err := svc.SignupPatient(context.Background(), req)
			assert.Error(t, err)
		})
	}
	// Invalid input never reaches the stores.
	assert.Empty(t, pats.created)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.SignupPatient(context.Background(), patientSignup())
	require.NoError(t, err)

	_, err = svc.SignupPatient(context.Background(), patientSignup())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInAndOut(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.SignupPatient(context.Background(), patientSignup())
	require.NoError(t, err)

	token, acct, err := svc.SignIn(context.Background(), "jane@example.com", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, RolePatient, acct.Role)

	accountID, role, err := svc.sessions.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, accountID)
	assert.Equal(t, "patient", role)

	require.NoError(t, svc.SignOut(context.Background(), token))
	_, _, err = svc.sessions.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.SignupPatient(context.Background(), patientSignup())
	require.NoError(t, err)

	_, _, err = svc.SignIn(context.Background(), "jane@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInUnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	// Unknown accounts and bad passwords are indistinguishable to callers.
	_, _, err := svc.SignIn(context.Background(), "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDeriveRole(t *testing.T) {
	assert.Equal(t, RoleDoctor, DeriveRole("Cardiology"))
	assert.Equal(t, RoleDoctor, DeriveRole("  Dermatology "))
	assert.Equal(t, RolePatient, DeriveRole(""))
	assert.Equal(t, RolePatient, DeriveRole("   "))
}
