package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const patientColumns = `id, account_id, name, email, phone, allergies, conditions, medications, created_at`

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides Postgres-backed patient storage.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for tests.
func NewRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

// CreateParams holds the fields collected at patient signup.
type CreateParams struct {
	AccountID   string
	Name        string
	Email       string
	Phone       string
	Allergies   []string
	Conditions  []string
	Medications []string
}

// Create inserts a patient profile and returns it.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*Patient, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO patients (id, account_id, name, email, phone, allergies, conditions, medications)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+patientColumns,
		uuid.NewString(), p.AccountID, p.Name, p.Email, p.Phone,
		orEmpty(p.Allergies), orEmpty(p.Conditions), orEmpty(p.Medications))
	return scanPatient(row)
}

// GetByID returns the patient or ErrPatientNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Patient, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

// GetByAccountID returns the patient profile owned by the account.
func (r *Repository) GetByAccountID(ctx context.Context, accountID string) (*Patient, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE account_id = $1`, accountID)
	return scanPatient(row)
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Email, &p.Phone,
		&p.Allergies, &p.Conditions, &p.Medications, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: scan patient: %w", err)
	}
	return &p, nil
}

func orEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
