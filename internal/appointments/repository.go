package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `id, patient_id, doctor_id, date, report, status, created_at`

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides Postgres-backed appointment storage.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for tests.
func NewRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

// CreateParams holds the fields for a new appointment record.
type CreateParams struct {
	PatientID string
	DoctorID  string
	Date      time.Time
	Report    *string
}

// Create inserts a pending appointment and returns it.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, date, report, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+appointmentColumns,
		uuid.NewString(), p.PatientID, p.DoctorID, p.Date, p.Report, string(StatusPending))
	return scanAppointment(row)
}

// GetByID returns the appointment or ErrAppointmentNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// UpdateStatus transitions an appointment's lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE appointments SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// ListByPatient returns the patient's appointments ordered by date.
func (r *Repository) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE patient_id = $1 ORDER BY date`, patientID)
}

// ListByDoctor returns the doctor's appointments ordered by date.
func (r *Repository) ListByDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE doctor_id = $1 ORDER BY date`, doctorID)
}

func (r *Repository) list(ctx context.Context, sql, participantID string) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, sql, participantID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var a Appointment
		var status string
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Report, &status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("appointments: scan appointment: %w", err)
		}
		a.Status = Status(status)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Report, &status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: scan appointment: %w", err)
	}
	a.Status = Status(status)
	return &a, nil
}
