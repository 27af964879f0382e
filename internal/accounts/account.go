// Package accounts handles identity: signup, sign-in, sessions, and role
// classification.
package accounts

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmailTaken signals a signup against an already-registered email.
	ErrEmailTaken = errors.New("accounts: email already registered")
	// ErrInvalidCredentials covers both unknown email and bad password.
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")
	// ErrAccountNotFound signals the account record does not exist.
	ErrAccountNotFound = errors.New("accounts: account not found")
)

// Role classifies an account as patient or doctor.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Account is an identity record. The role is stored explicitly at creation
// rather than inferred from profile fields.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// DeriveRole classifies legacy records that predate the explicit role column:
// a non-empty specialization marks a doctor, anything else a patient.
func DeriveRole(specialization string) Role {
	if strings.TrimSpace(specialization) != "" {
		return RoleDoctor
	}
	return RolePatient
}
