// Package patients stores patient profiles.
package patients

import (
	"errors"
	"time"
)

// ErrPatientNotFound signals the patient record does not exist.
var ErrPatientNotFound = errors.New("patients: patient not found")

// Patient is a patient profile record. Allergies, conditions, and medications
// are free-form tags collected at signup.
type Patient struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Allergies   []string  `json:"allergies"`
	Conditions  []string  `json:"conditions"`
	Medications []string  `json:"medications"`
	CreatedAt   time.Time `json:"created_at"`
}
