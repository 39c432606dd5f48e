package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/atrimbitas/docuvault/internal/errs"
	"github.com/atrimbitas/docuvault/internal/model"
)

// ShareLinkRepo implements ShareLinkRepository using PostgreSQL.
type ShareLinkRepo struct{ db *DB }

// NewShareLinkRepo constructs a share-link repository.
func NewShareLinkRepo(db *DB) *ShareLinkRepo { return &ShareLinkRepo{db: db} }

// Create inserts a new link row.
func (r *ShareLinkRepo) Create(ctx context.Context, l *model.ShareLink) error {
	const q = `
INSERT INTO share_links (id, secret_id, token, expires_at, max_views, view_count, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, l.ID, l.SecretID, l.Token, l.ExpiresAt, l.MaxViews, l.ViewCount, l.Active)
	return err
}

// GetByToken selects a link by its unique token.
func (r *ShareLinkRepo) GetByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	const q = `
SELECT id, secret_id, token, expires_at, max_views, view_count, active, created_at
FROM share_links WHERE token=$1`
	var l model.ShareLink
	err := r.db.Pool.QueryRow(ctx, q, token).Scan(
		&l.ID, &l.SecretID, &l.Token, &l.ExpiresAt, &l.MaxViews, &l.ViewCount, &l.Active, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Consume increments the view counter under the row's own guard: the UPDATE
// only matches while the link is active, unexpired and under budget, so two
// concurrent redemptions of the last view serialize on the row and exactly
// one succeeds. On a zero-row update the link is re-read to classify the
// rejection.
func (r *ShareLinkRepo) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	const upd = `
UPDATE share_links
SET view_count = view_count + 1
WHERE token=$1
  AND active
  AND (expires_at IS NULL OR expires_at > now())
  AND (max_views IS NULL OR view_count < max_views)
RETURNING secret_id`
	var secretID uuid.UUID
	err := r.db.Pool.QueryRow(ctx, upd, token).Scan(&secretID)
	if err == nil {
		return secretID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, err
	}

	l, err := r.GetByToken(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Nil, classifyRejected(l, time.Now())
}

// Deactivate clears the active flag unconditionally.
func (r *ShareLinkRepo) Deactivate(ctx context.Context, token string) error {
	const q = `UPDATE share_links SET active=false WHERE token=$1`
	tag, err := r.db.Pool.Exec(ctx, q, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// classifyRejected maps a link that failed the consume guard to its sentinel.
// Expiry and exhaustion are reported regardless of the active flag.
func classifyRejected(l *model.ShareLink, now time.Time) error {
	if l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
		return errs.ErrExpired
	}
	if l.MaxViews != nil && l.ViewCount >= *l.MaxViews {
		return errs.ErrExhausted
	}
	// The guard failed but the re-read looks consumable: a concurrent state
	// change raced us. Inactive is the conservative answer.
	return errs.ErrInactive
}
