package doctors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const doctorColumns = `id, account_id, name, email, phone, specialization, available_dates, reports, created_at`

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides Postgres-backed doctor storage.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for tests.
func NewRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

// CreateParams holds the fields required to register a doctor profile.
type CreateParams struct {
	AccountID      string
	Name           string
	Email          string
	Phone          string
	Specialization string
	AvailableDates []string
}

// Create inserts a doctor profile and returns it.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*Doctor, error) {
	if p.AvailableDates == nil {
		p.AvailableDates = []string{}
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO doctors (id, account_id, name, email, phone, specialization, available_dates)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+doctorColumns,
		uuid.NewString(), p.AccountID, p.Name, p.Email, p.Phone, p.Specialization, p.AvailableDates)
	return scanDoctor(row)
}

// GetByID returns the doctor or ErrDoctorNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

// GetByAccountID returns the doctor profile owned by the account.
func (r *Repository) GetByAccountID(ctx context.Context, accountID string) (*Doctor, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE account_id = $1`, accountID)
	return scanDoctor(row)
}

// ListBySpecializations returns doctors whose specialization is a member of
// the supplied set. An empty set yields no candidates.
func (r *Repository) ListBySpecializations(ctx context.Context, specializations []string) ([]*Doctor, error) {
	if len(specializations) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE specialization = ANY($1) ORDER BY name`,
		specializations)
	if err != nil {
		return nil, fmt.Errorf("doctors: list by specialization: %w", err)
	}
	return collectDoctors(rows)
}

// Search matches doctors by name or specialization substring.
func (r *Repository) Search(ctx context.Context, term string) ([]*Doctor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+doctorColumns+` FROM doctors
		 WHERE name ILIKE '%' || $1 || '%' OR specialization ILIKE '%' || $1 || '%'
		 ORDER BY name`,
		term)
	if err != nil {
		return nil, fmt.Errorf("doctors: search: %w", err)
	}
	return collectDoctors(rows)
}

// AppendReport atomically appends a serialized report to the doctor's report
// list.
func (r *Repository) AppendReport(ctx context.Context, doctorID, report string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE doctors SET reports = array_append(reports, $2) WHERE id = $1`,
		doctorID, report)
	if err != nil {
		return fmt.Errorf("doctors: append report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

// RemoveAvailableDate atomically removes the date from the doctor's available
// set. The membership guard makes concurrent removals race-safe: only one
// caller observes a successful removal, the rest get ErrSlotTaken.
func (r *Repository) RemoveAvailableDate(ctx context.Context, doctorID, date string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE doctors SET available_dates = array_remove(available_dates, $2)
		 WHERE id = $1 AND $2 = ANY(available_dates)`,
		doctorID, date)
	if err != nil {
		return fmt.Errorf("doctors: remove available date: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM doctors WHERE id = $1)`, doctorID).Scan(&exists); err != nil {
		return fmt.Errorf("doctors: remove available date: %w", err)
	}
	if !exists {
		return ErrDoctorNotFound
	}
	return ErrSlotTaken
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.AccountID, &d.Name, &d.Email, &d.Phone,
		&d.Specialization, &d.AvailableDates, &d.Reports, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: scan doctor: %w", err)
	}
	return &d, nil
}

func collectDoctors(rows pgx.Rows) ([]*Doctor, error) {
	defer rows.Close()
	var out []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.AccountID, &d.Name, &d.Email, &d.Phone,
			&d.Specialization, &d.AvailableDates, &d.Reports, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("doctors: scan doctor: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
