package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, email, name, phone, role, password_hash, created_at`

// uniqueViolation is the Postgres error code raised by the email constraint.
const uniqueViolation = "23505"

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides Postgres-backed account storage.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("accounts: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for tests.
func NewRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

// CreateParams holds the fields required to create an account.
type CreateParams struct {
	Email        string
	Name         string
	Phone        string
	Role         Role
	PasswordHash string
}

// Create inserts an account, mapping the email uniqueness violation to
// ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*Account, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO accounts (id, email, name, phone, role, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+accountColumns,
		uuid.NewString(), p.Email, p.Name, p.Phone, string(p.Role), p.PasswordHash)
	acct, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return acct, nil
}

// GetByEmail returns the account or ErrAccountNotFound.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// GetByID returns the account or ErrAccountNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Phone, &role, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("accounts: scan account: %w", err)
	}
	a.Role = Role(role)
	return &a, nil
}
