// Package appointments stores appointment records and builds the
// role-appropriate listing views for patients and doctors.
package appointments

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrAppointmentNotFound signals the appointment record does not exist.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")
)

// Status tracks the booking lifecycle of an appointment record.
type Status string

const (
	// StatusPending marks an appointment created but not yet confirmed by the
	// booking workflow.
	StatusPending Status = "pending"
	// StatusConfirmed marks a fully committed booking.
	StatusConfirmed Status = "confirmed"
	// StatusPendingReconciliation marks an appointment whose booking workflow
	// failed midway and needs operator attention.
	StatusPendingReconciliation Status = "pending_reconciliation"
)

// Appointment links a patient, a doctor, and a date, optionally carrying the
// serialized visit report. Records are created once by the booking workflow
// and never rewritten apart from status transitions.
type Appointment struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id"`
	Date      time.Time `json:"date"`
	Report    *string   `json:"-"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the symptom/diagnosis payload attached at booking time.
type Report struct {
	Symptoms  []string `json:"symptoms"`
	Diagnosis string   `json:"diagnosis"`
}

// ReportView is what the doctor sees when opening a visit report. Missing or
// unparsable payloads render as a placeholder instead of an error.
type ReportView struct {
	Available bool     `json:"available"`
	Symptoms  []string `json:"symptoms,omitempty"`
	Diagnosis string   `json:"diagnosis,omitempty"`
}

// ParseReport decodes a stored report payload leniently.
func ParseReport(raw *string) ReportView {
	if raw == nil || *raw == "" {
		return ReportView{}
	}
	var r Report
	if err := json.Unmarshal([]byte(*raw), &r); err != nil {
		return ReportView{}
	}
	return ReportView{Available: true, Symptoms: r.Symptoms, Diagnosis: r.Diagnosis}
}
