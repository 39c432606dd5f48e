package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/atrimbitas/docuvault/internal/errs"
	"github.com/atrimbitas/docuvault/internal/model"
)

// SecretRepo implements SecretRepository using PostgreSQL.
type SecretRepo struct{ db *DB }

// NewSecretRepo constructs a secret repository.
func NewSecretRepo(db *DB) *SecretRepo { return &SecretRepo{db: db} }

// Create inserts a new secret row. The sealed value is stored as one opaque blob.
func (r *SecretRepo) Create(ctx context.Context, s *model.SecretRecord) error {
	const q = `
INSERT INTO secrets (id, org_id, name, username, url, notes, value_enc)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, s.ID, s.OrgID, s.Name, s.Username, s.URL, s.Notes, s.Value)
	return err
}

// Get selects a single secret by ID.
func (r *SecretRepo) Get(ctx context.Context, id uuid.UUID) (*model.SecretRecord, error) {
	const q = `
SELECT id, org_id, name, username, url, notes, value_enc, created_at, updated_at
FROM secrets WHERE id=$1`
	var s model.SecretRecord
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.OrgID, &s.Name, &s.Username, &s.URL, &s.Notes, &s.Value, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns secrets matching the filter ordered by name, paginated.
func (r *SecretRepo) List(ctx context.Context, f model.SecretFilter) ([]model.SecretRecord, error) {
	const q = `
SELECT id, org_id, name, username, url, notes, value_enc, created_at, updated_at
FROM secrets
WHERE ($1::uuid IS NULL OR org_id=$1)
  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY name
OFFSET $3 LIMIT $4`
	page, size := normalizePage(f.Page, f.PageSize)
	var org any
	if f.OrgID != uuid.Nil {
		org = f.OrgID
	}
	rows, err := r.db.Pool.Query(ctx, q, org, f.Search, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SecretRecord
	for rows.Next() {
		var s model.SecretRecord
		if err := rows.Scan(&s.ID, &s.OrgID, &s.Name, &s.Username, &s.URL, &s.Notes, &s.Value, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update replaces all mutable columns wholesale, including the sealed value.
func (r *SecretRepo) Update(ctx context.Context, s *model.SecretRecord) error {
	const q = `
UPDATE secrets
SET name=$2, username=$3, url=$4, notes=$5, value_enc=$6, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, s.ID, s.Name, s.Username, s.URL, s.Notes, s.Value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a secret row permanently.
func (r *SecretRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM secrets WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// normalizePage clamps pagination to sane bounds.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 25
	}
	return page, size
}
