package service

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/atrimbitas/docuvault/internal/crypto"
	"github.com/atrimbitas/docuvault/internal/model"
	"github.com/atrimbitas/docuvault/internal/repository"
)

// shareTokenBytes sizes the random token; 32 bytes gives 256 bits of entropy,
// enough for the token itself to act as the only secret gating access.
const shareTokenBytes = 32

// RevealedShare is what an anonymous bearer receives on a successful consume.
type RevealedShare struct {
	Name     string
	Username string
	Value    string
}

// ShareService issues and redeems time/view-bounded anonymous access links.
type ShareService interface {
	// Issue creates a link bound to one secret. Zero ttl means no expiry,
	// zero maxViews means unlimited views.
	Issue(ctx context.Context, secretID uuid.UUID, ttl time.Duration, maxViews int) (*model.ShareLink, error)
	// Consume redeems one view and returns the decrypted secret.
	Consume(ctx context.Context, tok string) (RevealedShare, error)
	// Deactivate permanently disables a link. Idempotent.
	Deactivate(ctx context.Context, tok string) error
}

type ShareServiceImpl struct {
	links   repository.ShareLinkRepository
	secrets repository.SecretRepository
	cipher  *pkgcrypto.Cipher
}

// NewShareService constructs ShareService with required dependencies.
func NewShareService(links repository.ShareLinkRepository, secrets repository.SecretRepository, cipher *pkgcrypto.Cipher) *ShareServiceImpl {
	return &ShareServiceImpl{links: links, secrets: secrets, cipher: cipher}
}

// Issue generates an unguessable token and stores the link with a zero view
// counter. The secret must exist at issue time.
func (s *ShareServiceImpl) Issue(ctx context.Context, secretID uuid.UUID, ttl time.Duration, maxViews int) (*model.ShareLink, error) {
	if secretID == uuid.Nil {
		return nil, errors.New("validation: empty secret_id")
	}
	if maxViews < 0 {
		return nil, errors.New("validation: negative max_views")
	}
	if _, err := s.secrets.Get(ctx, secretID); err != nil {
		return nil, err
	}
	raw, err := pkgcrypto.RandBytes(shareTokenBytes)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	l := &model.ShareLink{
		ID:       id,
		SecretID: secretID,
		Token:    base64.RawURLEncoding.EncodeToString(raw),
		Active:   true,
	}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		l.ExpiresAt = &exp
	}
	if maxViews > 0 {
		l.MaxViews = &maxViews
	}
	if err := s.links.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Consume spends one view atomically and opens the bound secret. The
// repository serializes the increment, so concurrent redemptions of the last
// view yield exactly one success.
func (s *ShareServiceImpl) Consume(ctx context.Context, tok string) (RevealedShare, error) {
	secretID, err := s.links.Consume(ctx, tok)
	if err != nil {
		return RevealedShare{}, err
	}
	rec, err := s.secrets.Get(ctx, secretID)
	if err != nil {
		return RevealedShare{}, err
	}
	out := RevealedShare{Name: rec.Name, Username: rec.Username}
	if len(rec.Value) > 0 {
		plaintext, err := s.cipher.Open(rec.Value)
		if err != nil {
			return RevealedShare{}, err
		}
		out.Value = string(plaintext)
	}
	return out, nil
}

// Deactivate disables the link regardless of its remaining budget.
func (s *ShareServiceImpl) Deactivate(ctx context.Context, tok string) error {
	return s.links.Deactivate(ctx, tok)
}
