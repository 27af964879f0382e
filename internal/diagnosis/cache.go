package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medassist/telehealth-platform/internal/doctors"
)

// State is the per-patient intake session: the last analyzed input, its
// result, and the doctor candidates derived from it. It is overwritten on
// every successful analysis and expires with the session TTL.
type State struct {
	UserInput       string            `json:"user_input"`
	Result          *Analysis         `json:"result,omitempty"`
	Specializations []string          `json:"specializations"`
	Doctors         []*doctors.Doctor `json:"doctors"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// SessionCache stores intake state in Redis keyed by patient.
type SessionCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionCache builds the cache. TTL bounds how long an abandoned intake
// survives.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	if client == nil {
		panic("diagnosis: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionCache{redis: client, ttl: ttl}
}

// Get returns the patient's intake state. An absent key yields a zero-value
// state, never an error.
func (c *SessionCache) Get(ctx context.Context, patientID string) (State, error) {
	raw, err := c.redis.Get(ctx, stateKey(patientID)).Result()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("diagnosis: read intake state: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("diagnosis: decode intake state: %w", err)
	}
	return state, nil
}

// Put overwrites the patient's intake state.
func (c *SessionCache) Put(ctx context.Context, patientID string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("diagnosis: encode intake state: %w", err)
	}
	if err := c.redis.Set(ctx, stateKey(patientID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("diagnosis: write intake state: %w", err)
	}
	return nil
}

// Clear drops the patient's intake state.
func (c *SessionCache) Clear(ctx context.Context, patientID string) error {
	if err := c.redis.Del(ctx, stateKey(patientID)).Err(); err != nil {
		return fmt.Errorf("diagnosis: clear intake state: %w", err)
	}
	return nil
}

func stateKey(patientID string) string {
	return "intake:state:" + patientID
}
