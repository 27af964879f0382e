// Package doctors provides the doctor registry: profile lookup, candidate
// search by specialization, and the slot/report mutations used by booking.
package doctors

import (
	"errors"
	"time"
)

var (
	// ErrDoctorNotFound signals the caller should treat the doctor as unavailable.
	ErrDoctorNotFound = errors.New("doctors: doctor not found")
	// ErrSlotTaken signals the requested date is no longer in the doctor's
	// available set.
	ErrSlotTaken = errors.New("doctors: date no longer available")
)

// Doctor is a doctor profile record.
type Doctor struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Specialization string    `json:"specialization"`
	AvailableDates []string  `json:"available_dates"`
	Reports        []string  `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
