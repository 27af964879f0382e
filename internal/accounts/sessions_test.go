package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionManager("test-secret", time.Hour, client), mr
}

func TestSessionIssueAndValidate(t *testing.T) {
	sessions, _ := newTestSessions(t)
	acct := &Account{ID: "acc-1", Role: RoleDoctor}

	token, err := sessions.Issue(acct)
	require.NoError(t, err)

	claims, err := sessions.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "doctor", claims.Role)
}

func TestSessionValidateToken(t *testing.T) {
	sessions, _ := newTestSessions(t)
	token, err := sessions.Issue(&Account{ID: "acc-2", Role: RolePatient})
	require.NoError(t, err)

	accountID, role, err := sessions.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "acc-2", accountID)
	assert.Equal(t, "patient", role)
}

func TestSessionRevoke(t *testing.T) {
	sessions, _ := newTestSessions(t)
	token, err := sessions.Issue(&Account{ID: "acc-1", Role: RolePatient})
	require.NoError(t, err)

	require.NoError(t, sessions.Revoke(context.Background(), token))

	_, err = sessions.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// Revoking an already revoked token is not an error.
	assert.NoError(t, sessions.Revoke(context.Background(), token))
}

func TestSessionExpired(t *testing.T) {
	sessions, _ := newTestSessions(t)
	sessions.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := sessions.Issue(&Account{ID: "acc-1", Role: RolePatient})
	require.NoError(t, err)

	_, err = sessions.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	sessions, _ := newTestSessions(t)
	other := NewSessionManager("different-secret", time.Hour, redis.NewClient(&redis.Options{Addr: "localhost:0"}))

	token, err := other.Issue(&Account{ID: "acc-1", Role: RolePatient})
	require.NoError(t, err)

	_, err = sessions.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}
