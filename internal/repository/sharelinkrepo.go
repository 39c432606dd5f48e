package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/atrimbitas/docuvault/internal/model"
)

// ShareLinkRepository stores anonymous bounded-view access links.
//
// Consume is the one operation that needs serialization across concurrent
// callers: the view-count increment and its budget check must be a single
// atomic step so that two simultaneous redemptions cannot both pass the
// final view.
type ShareLinkRepository interface {
	// Create inserts a new link with view_count=0 and active=true.
	Create(ctx context.Context, l *model.ShareLink) error
	// GetByToken loads a link by its token.
	GetByToken(ctx context.Context, token string) (*model.ShareLink, error)
	// Consume atomically increments the view counter if the link is active,
	// unexpired and under budget, returning the bound secret ID. Failures are
	// classified as ErrNotFound, ErrExpired, ErrExhausted or ErrInactive;
	// expiry and exhaustion take precedence over the active flag.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
	// Deactivate clears the active flag. Idempotent; unknown tokens are ErrNotFound.
	Deactivate(ctx context.Context, token string) error
}
