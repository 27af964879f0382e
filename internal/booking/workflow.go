// Package booking orchestrates the appointment booking workflow: appointment
// creation, slot release on the doctor record, and report propagation.
//
// The steps span two stores and are not transactional. The workflow is
// modeled as a short-lived state machine so every partial failure has a name
// and a defined recovery action (the appointment is marked for
// reconciliation) instead of silently leaving inconsistent state behind.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medassist/telehealth-platform/internal/appointments"
	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/observability/metrics"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("telehealth.internal.booking")

var (
	// ErrNoDateSelected is a precondition failure: no remote call is issued.
	ErrNoDateSelected = errors.New("booking: no date selected")
	// ErrNoDiagnosis is a precondition failure: the visit report is required.
	ErrNoDiagnosis = errors.New("booking: diagnosis result required")
	// ErrInvalidDate is a precondition failure: the date must be RFC 3339.
	ErrInvalidDate = errors.New("booking: invalid date")
)

// State names a point in the booking lifecycle.
type State string

const (
	StateInitiated          State = "initiated"
	StateAppointmentCreated State = "appointment_created"
	StateSlotReleased       State = "slot_released"
	StateReportRecorded     State = "report_recorded"
	StateCommitted          State = "committed"
	StateFailed             State = "failed"
)

// Step names the workflow step that failed.
type Step string

const (
	StepCreateAppointment Step = "create_appointment"
	StepReleaseSlot       Step = "release_slot"
	StepRecordReport      Step = "record_report"
	StepConfirm           Step = "confirm"
)

// AppointmentStore is the slice of appointment persistence the workflow uses.
type AppointmentStore interface {
	Create(ctx context.Context, p appointments.CreateParams) (*appointments.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status appointments.Status) error
}

// DoctorRegistry is the slice of the doctor registry the workflow mutates.
type DoctorRegistry interface {
	RemoveAvailableDate(ctx context.Context, doctorID, date string) error
	AppendReport(ctx context.Context, doctorID, report string) error
}

// Request is one booking attempt.
type Request struct {
	PatientID string
	DoctorID  string
	// Date is the selected slot exactly as published in the doctor's
	// available set (RFC 3339).
	Date   string
	Report appointments.Report
}

// Result reports where the workflow ended up. FailedStep is set only when
// State is StateFailed.
type Result struct {
	State       State                     `json:"state"`
	FailedStep  Step                      `json:"failed_step,omitempty"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
}

// Workflow runs booking attempts.
type Workflow struct {
	appointments AppointmentStore
	doctors      DoctorRegistry
	logger       *logging.Logger
	metrics      *metrics.BookingMetrics
	now          func() time.Time
}

// NewWorkflow constructs a booking workflow.
func NewWorkflow(appts AppointmentStore, registry DoctorRegistry, logger *logging.Logger, m *metrics.BookingMetrics) *Workflow {
	if appts == nil || registry == nil {
		panic("booking: appointment store and doctor registry required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Workflow{
		appointments: appts,
		doctors:      registry,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// Book runs the workflow to completion. On a mid-flight failure the created
// appointment is marked pending reconciliation and the failed step is
// reported; earlier steps are not rolled back.
func (w *Workflow) Book(ctx context.Context, req Request) (*Result, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("telehealth.doctor_id", req.DoctorID),
		attribute.String("telehealth.patient_id", req.PatientID),
	)
	start := w.now()
	defer func() { w.metrics.ObserveDuration(time.Since(start).Seconds()) }()

	if req.Date == "" {
		w.metrics.ObserveOutcome("precondition")
		return &Result{State: StateInitiated}, ErrNoDateSelected
	}
	if req.Report.Diagnosis == "" && len(req.Report.Symptoms) == 0 {
		w.metrics.ObserveOutcome("precondition")
		return &Result{State: StateInitiated}, ErrNoDiagnosis
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		w.metrics.ObserveOutcome("precondition")
		return &Result{State: StateInitiated}, fmt.Errorf("%w: %q", ErrInvalidDate, req.Date)
	}

	reportJSON, err := json.Marshal(req.Report)
	if err != nil {
		w.metrics.ObserveOutcome("precondition")
		return &Result{State: StateInitiated}, fmt.Errorf("booking: encode report: %w", err)
	}
	report := string(reportJSON)

	appt, err := w.appointments.Create(ctx, appointments.CreateParams{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Report:    &report,
	})
	if err != nil {
		span.RecordError(err)
		w.metrics.ObserveOutcome("error")
		return &Result{State: StateFailed, FailedStep: StepCreateAppointment},
			fmt.Errorf("booking: create appointment: %w", err)
	}

	if err := w.doctors.RemoveAvailableDate(ctx, req.DoctorID, req.Date); err != nil {
		span.RecordError(err)
		w.markForReconciliation(ctx, appt)
		result := &Result{State: StateFailed, FailedStep: StepReleaseSlot, Appointment: appt}
		if errors.Is(err, doctors.ErrSlotTaken) {
			w.metrics.ObserveOutcome("slot_taken")
			return result, err
		}
		w.metrics.ObserveOutcome("error")
		return result, fmt.Errorf("booking: release slot: %w", err)
	}

	if err := w.doctors.AppendReport(ctx, req.DoctorID, report); err != nil {
		span.RecordError(err)
		w.markForReconciliation(ctx, appt)
		w.metrics.ObserveOutcome("error")
		return &Result{State: StateFailed, FailedStep: StepRecordReport, Appointment: appt},
			fmt.Errorf("booking: record report: %w", err)
	}

	if err := w.appointments.UpdateStatus(ctx, appt.ID, appointments.StatusConfirmed); err != nil {
		span.RecordError(err)
		w.metrics.ObserveOutcome("error")
		return &Result{State: StateFailed, FailedStep: StepConfirm, Appointment: appt},
			fmt.Errorf("booking: confirm appointment: %w", err)
	}
	appt.Status = appointments.StatusConfirmed

	w.logger.Info("booking committed",
		"appointment_id", appt.ID,
		"doctor_id", req.DoctorID,
		"patient_id", req.PatientID,
		"date", req.Date,
	)
	w.metrics.ObserveOutcome("committed")
	return &Result{State: StateCommitted, Appointment: appt}, nil
}

func (w *Workflow) markForReconciliation(ctx context.Context, appt *appointments.Appointment) {
	if err := w.appointments.UpdateStatus(ctx, appt.ID, appointments.StatusPendingReconciliation); err != nil {
		w.logger.Error("failed to mark appointment for reconciliation", "appointment_id", appt.ID, "error", err)
		return
	}
	appt.Status = appointments.StatusPendingReconciliation
}
