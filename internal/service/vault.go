package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/atrimbitas/docuvault/internal/crypto"
	"github.com/atrimbitas/docuvault/internal/model"
	"github.com/atrimbitas/docuvault/internal/repository"
)

// CreateSecret is the input for VaultService.Create.
type CreateSecret struct {
	OrgID    uuid.UUID
	Name     string
	Username string
	URL      string
	Notes    string
	Value    string // plaintext; sealed before storage, may be empty
}

// VaultService defines operations over sealed secret records. Every mutation
// and reveal appends one audit entry in the same unit of work.
type VaultService interface {
	// Create seals the value and stores a new record.
	Create(ctx context.Context, actorID uuid.UUID, origin string, in CreateSecret) (*model.SecretRecord, error)
	// Get returns a record without its plaintext.
	Get(ctx context.Context, id uuid.UUID) (*model.SecretRecord, error)
	// List returns records matching the filter.
	List(ctx context.Context, f model.SecretFilter) ([]model.SecretRecord, error)
	// Update applies a partial update; provided fields only.
	Update(ctx context.Context, actorID uuid.UUID, origin string, id uuid.UUID, p model.SecretPatch) (*model.SecretRecord, error)
	// Delete removes a record permanently.
	Delete(ctx context.Context, actorID uuid.UUID, origin string, id uuid.UUID) error
	// Reveal opens the sealed value and returns the plaintext.
	Reveal(ctx context.Context, actorID uuid.UUID, origin string, id uuid.UUID) (string, error)
	// Audit queries the access ledger, newest first.
	Audit(ctx context.Context, f model.AuditFilter) ([]model.AccessLogEntry, error)
}

type VaultServiceImpl struct {
	secrets repository.SecretRepository
	log     repository.AccessLogRepository
	cipher  *pkgcrypto.Cipher
	logger  *zap.Logger
}

// NewVaultService constructs VaultService with required dependencies.
func NewVaultService(secrets repository.SecretRepository, log repository.AccessLogRepository, cipher *pkgcrypto.Cipher, logger *zap.Logger) *VaultServiceImpl {
	return &VaultServiceImpl{secrets: secrets, log: log, cipher: cipher, logger: logger}
}

// Create seals the value (when present) and stores the record, then records
// the creation in the access ledger.
func (s *VaultServiceImpl) Create(ctx context.Context, actorID uuid.UUID, origin string, in CreateSecret) (*model.SecretRecord, error) {
	if in.OrgID == uuid.Nil || in.Name == "" {
		return nil, errors.New("validation: empty org_id/name")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	rec := &model.SecretRecord{
		ID:       id,
		OrgID:    in.OrgID,
		Name:     in.Name,
		Username: in.Username,
		URL:      in.URL,
		Notes:    in.Notes,
	}
	if in.Value != "" {
		if rec.Value, err = s.cipher.Seal([]byte(in.Value)); err != nil {
			return nil, err
		}
	}
	if err := s.secrets.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.recordAccess(ctx, rec.ID, actorID, model.ActionCreate, origin)
	return rec, nil
}

// Get returns a record by ID; the sealed value stays opaque.
func (s *VaultServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.SecretRecord, error) {
	return s.secrets.Get(ctx, id)
}

// List returns records matching the filter.
func (s *VaultServiceImpl) List(ctx context.Context, f model.SecretFilter) ([]model.SecretRecord, error) {
	return s.secrets.List(ctx, f)
}

// Update applies only the fields present in the patch. A new value replaces
// the ciphertext wholesale; no partial re-encryption happens.
func (s *VaultServiceImpl) Update(ctx context.Context, actorID uuid.UUID, origin string, id uuid.UUID, p model.SecretPatch) (*model.SecretRecord, error) {
	rec, err := s.secrets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Username != nil {
		rec.Username = *p.Username
	}
	if p.URL != nil {
		rec.URL = *p.URL
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	if p.Value != nil {
		if *p.Value == "" {
			rec.Value = nil
		} else if rec.Value, err = s.cipher.Seal([]byte(*p.Value)); err != nil {
			return nil, err
		}
	}
	if err := s.secrets.Update(ctx, rec); err != nil {
		return nil, err
	}
	s.recordAccess(ctx, rec.ID, actorID, model.ActionUpdate, origin)
	return rec, nil
}

// Delete removes the record. The ledger entry is written after the row is
// gone; the ledger has no foreign key so the fact outlives the record.
func (s *VaultServiceImpl) Delete(ctx context.Context, actorID uuid.UUID, origin string, id uuid.UUID) error {
	if err := s.secrets.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAccess(ctx, id, actorID, model.ActionDelete, origin)
	return nil
}

// Reveal opens the sealed value. An empty stored value reveals as "".
func (s *VaultServiceImpl) Reveal(ctx context.Context, actorID uuid.UUID, origin string, id uuid.UUID) (string, error) {
	rec, err := s.secrets.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if len(rec.Value) == 0 {
		return "", nil
	}
	plaintext, err := s.cipher.Open(rec.Value)
	if err != nil {
		return "", err
	}
	s.recordAccess(ctx, rec.ID, actorID, model.ActionReveal, origin)
	return string(plaintext), nil
}

// Audit queries the access ledger.
func (s *VaultServiceImpl) Audit(ctx context.Context, f model.AuditFilter) ([]model.AccessLogEntry, error) {
	return s.log.List(ctx, f)
}

// recordAccess appends one ledger entry. A failed append never rolls back the
// primary mutation; it is surfaced to operational monitoring instead, which
// is a known durability gap when the store blips right after a mutation.
func (s *VaultServiceImpl) recordAccess(ctx context.Context, secretID, actorID uuid.UUID, action model.AccessAction, origin string) {
	id, err := uuid.NewV4()
	if err != nil {
		s.logger.Error("access log id", zap.Error(err))
		return
	}
	e := &model.AccessLogEntry{
		ID:        id,
		SecretID:  secretID,
		AccountID: actorID,
		Action:    action,
		Origin:    origin,
	}
	if err := s.log.Append(ctx, e); err != nil {
		s.logger.Error("access log append",
			zap.String("secret_id", secretID.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
