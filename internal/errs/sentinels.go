// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials covers both unknown handle and wrong password,
	// so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized indicates a missing, malformed, expired or wrong-type token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrMfaRequired is returned by login when a second factor must be verified first.
	ErrMfaRequired = errors.New("mfa required")

	// ErrMfaNotEnabled indicates the account has no enrolled second factor.
	ErrMfaNotEnabled = errors.New("mfa not enabled")

	// ErrAlreadyEnabled indicates MFA enrollment on an account that already has it active.
	ErrAlreadyEnabled = errors.New("mfa already enabled")

	// ErrInvalidCode indicates a one-time code that failed verification.
	ErrInvalidCode = errors.New("invalid code")

	// ErrIntegrity indicates an AEAD open failure: tag mismatch, truncation or wrong key.
	ErrIntegrity = errors.New("ciphertext integrity check failed")

	// ErrExpired indicates a share link past its expiry instant.
	ErrExpired = errors.New("expired")

	// ErrExhausted indicates a share link that spent its view budget.
	ErrExhausted = errors.New("view limit exhausted")

	// ErrInactive indicates a deactivated share link.
	ErrInactive = errors.New("inactive")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., handle taken).
	ErrAlreadyExists = errors.New("already exists")
)
