package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/atrimbitas/docuvault/internal/crypto"
	"github.com/atrimbitas/docuvault/internal/errs"
	"github.com/atrimbitas/docuvault/internal/model"
	"github.com/atrimbitas/docuvault/internal/repository"
)

// SeedAccount provisions the initial account at startup if it does not exist.
// A blank password skips seeding entirely.
func SeedAccount(ctx context.Context, accounts repository.AccountRepository, handle, password string, logger *zap.Logger) error {
	if password == "" {
		logger.Info("seed account skipped, no password configured")
		return nil
	}
	if _, err := accounts.GetByHandle(ctx, handle); err == nil {
		logger.Info("seed account already exists", zap.String("handle", handle))
		return nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	digest, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return err
	}
	a := &model.Account{
		ID:        id,
		Handle:    handle,
		Email:     handle + "@docuvault.local",
		PwdDigest: digest,
		Enabled:   true,
	}
	if err := accounts.Create(ctx, a); err != nil {
		// Another instance may have won the race; that is fine.
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	logger.Info("seed account created", zap.String("handle", handle))
	return nil
}
