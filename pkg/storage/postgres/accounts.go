package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// AccountStore implements auth.AccountStore on the accounts table
type AccountStore struct {
	db *sql.DB
}

// NewAccountStore creates a new PostgreSQL-backed account store
func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, email, password_hash, name, phone, company, role, status, created_at, updated_at`

// GetByID retrieves an account by id
func (s *AccountStore) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.get(ctx, query, id)
}

// GetByEmail retrieves an account by email, ignoring case
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return s.get(ctx, query, email)
}

func (s *AccountStore) get(ctx context.Context, query string, arg string) (*auth.Account, error) {
	var a auth.Account
	var phone, company sql.NullString

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Name, &phone, &company,
		&a.Role, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	a.Phone = phone.String
	a.Company = company.String
	return &a, nil
}

// Create inserts an account. A duplicate email yields auth.ErrConflict.
func (s *AccountStore) Create(ctx context.Context, a *auth.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.Name, nullable(a.Phone), nullable(a.Company),
		a.Role, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrConflict
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// AdminStore implements auth.AdminStore on the admins table
type AdminStore struct {
	db *sql.DB
}

// NewAdminStore creates a new PostgreSQL-backed admin store
func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

const adminColumns = `id, email, password_hash, name, status, created_at, updated_at`

// GetByID retrieves an admin by id
func (s *AdminStore) GetByID(ctx context.Context, id string) (*auth.AdminAccount, error) {
	return s.get(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

// GetByEmail retrieves an admin by email, ignoring case
func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*auth.AdminAccount, error) {
	return s.get(ctx, `SELECT `+adminColumns+` FROM admins WHERE lower(email) = lower($1)`, email)
}

func (s *AdminStore) get(ctx context.Context, query string, arg string) (*auth.AdminAccount, error) {
	var a auth.AdminAccount
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

// Create inserts an admin. A duplicate email yields auth.ErrConflict.
func (s *AdminStore) Create(ctx context.Context, a *auth.AdminAccount) error {
	query := `
		INSERT INTO admins (` + adminColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.Name, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrConflict
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
