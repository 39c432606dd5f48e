// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/atrimbitas/docuvault/internal/model"
)

// AccountRepository provides access to login identities.
type AccountRepository interface {
	// Create inserts a new account.
	Create(ctx context.Context, a *model.Account) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// GetByHandle loads an account by its unique handle.
	GetByHandle(ctx context.Context, handle string) (*model.Account, error)
	// UpdateTotp replaces the stored TOTP secret and enabled flag in one write.
	// A nil secret clears enrollment.
	UpdateTotp(ctx context.Context, id uuid.UUID, secret []byte, enabled bool) error
}
