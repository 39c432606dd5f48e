package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/atrimbitas/docuvault/internal/model"
)

// AccessLogRepo implements AccessLogRepository using PostgreSQL.
// The table is append-only; no update or delete statements exist here.
type AccessLogRepo struct{ db *DB }

// NewAccessLogRepo constructs an access-log repository.
func NewAccessLogRepo(db *DB) *AccessLogRepo { return &AccessLogRepo{db: db} }

// Append writes one immutable entry.
func (r *AccessLogRepo) Append(ctx context.Context, e *model.AccessLogEntry) error {
	const q = `
INSERT INTO secret_access_log (id, secret_id, account_id, action, origin)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, e.ID, e.SecretID, e.AccountID, string(e.Action), e.Origin)
	return err
}

// List returns entries matching the filter, newest first, paginated.
func (r *AccessLogRepo) List(ctx context.Context, f model.AuditFilter) ([]model.AccessLogEntry, error) {
	const q = `
SELECT id, secret_id, account_id, action, origin, created_at
FROM secret_access_log
WHERE ($1::uuid IS NULL OR secret_id=$1)
  AND ($2 = '' OR action=$2)
ORDER BY created_at DESC
OFFSET $3 LIMIT $4`
	page, size := normalizePage(f.Page, f.PageSize)
	var secretID any
	if f.SecretID != uuid.Nil {
		secretID = f.SecretID
	}
	rows, err := r.db.Pool.Query(ctx, q, secretID, string(f.Action), (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AccessLogEntry
	for rows.Next() {
		var e model.AccessLogEntry
		var action string
		if err := rows.Scan(&e.ID, &e.SecretID, &e.AccountID, &action, &e.Origin, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = model.AccessAction(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
