package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionInvalid covers expired, malformed, and revoked session tokens.
var ErrSessionInvalid = errors.New("accounts: session invalid")

// SessionClaims is the JWT payload for a signed-in account.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HMAC-signed session tokens. Sign-out is
// implemented as a Redis revocation list keyed by token ID, kept until the
// token would have expired anyway.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	now    func() time.Time
}

// NewSessionManager builds a session manager.
func NewSessionManager(secret string, ttl time.Duration, redisClient *redis.Client) *SessionManager {
	if secret == "" {
		panic("accounts: session secret required")
	}
	if redisClient == nil {
		panic("accounts: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		redis:  redisClient,
		now:    time.Now,
	}
}

// Issue creates a session token for the account.
func (m *SessionManager) Issue(account *Account) (string, error) {
	now := m.now().UTC()
	claims := SessionClaims{
		Role: string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("accounts: sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses the token and rejects revoked sessions.
func (m *SessionManager) Validate(ctx context.Context, tokenString string) (*SessionClaims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	revoked, err := m.redis.Exists(ctx, revocationKey(claims.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("accounts: check session revocation: %w", err)
	}
	if revoked > 0 {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}

// ValidateToken adapts Validate to the shape the auth middleware consumes.
func (m *SessionManager) ValidateToken(ctx context.Context, tokenString string) (accountID, role string, err error) {
	claims, err := m.Validate(ctx, tokenString)
	if err != nil {
		return "", "", err
	}
	return claims.Subject, claims.Role, nil
}

// Revoke deletes the session by marking its token ID revoked until expiry.
func (m *SessionManager) Revoke(ctx context.Context, tokenString string) error {
	claims, err := m.parse(tokenString)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := m.redis.Set(ctx, revocationKey(claims.ID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("accounts: revoke session: %w", err)
	}
	return nil
}

func (m *SessionManager) parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}

func revocationKey(jti string) string {
	return "session:revoked:" + jti
}
