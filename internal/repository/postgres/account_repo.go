package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/atrimbitas/docuvault/internal/errs"
	"github.com/atrimbitas/docuvault/internal/model"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `id, handle, email, full_name, pwd_digest, enabled, totp_secret, totp_on, created_at, updated_at`

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, handle, email, full_name, pwd_digest, enabled, totp_secret, totp_on)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Handle, a.Email, a.FullName, a.PwdDigest, a.Enabled, a.TotpSecret, a.TotpOn)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByHandle selects an account by handle.
func (r *AccountRepo) GetByHandle(ctx context.Context, handle string) (*model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE handle=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, handle))
}

// UpdateTotp replaces the stored secret and enabled flag in one write.
func (r *AccountRepo) UpdateTotp(ctx context.Context, id uuid.UUID, secret []byte, enabled bool) error {
	const q = `UPDATE accounts SET totp_secret=$2, totp_on=$3, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, secret, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) scanOne(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Handle, &a.Email, &a.FullName, &a.PwdDigest, &a.Enabled, &a.TotpSecret, &a.TotpOn, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
