package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/atrimbitas/docuvault/internal/model"
)

// SecretRepository provides CRUD access to sealed secret records.
type SecretRepository interface {
	// Create inserts a new record.
	Create(ctx context.Context, s *model.SecretRecord) error
	// Get loads a record by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.SecretRecord, error)
	// List returns records matching the filter, ordered by name.
	List(ctx context.Context, f model.SecretFilter) ([]model.SecretRecord, error)
	// Update replaces the mutable columns of a record wholesale.
	Update(ctx context.Context, s *model.SecretRecord) error
	// Delete removes a record permanently.
	Delete(ctx context.Context, id uuid.UUID) error
}

// AccessLogRepository appends and queries the immutable vault audit ledger.
type AccessLogRepository interface {
	// Append writes one entry. Entries are never updated or removed.
	Append(ctx context.Context, e *model.AccessLogEntry) error
	// List returns entries matching the filter, newest first.
	List(ctx context.Context, f model.AuditFilter) ([]model.AccessLogEntry, error)
}
