// Package service contains application services for authentication and the vault.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/atrimbitas/docuvault/internal/crypto"
	"github.com/atrimbitas/docuvault/internal/errs"
	"github.com/atrimbitas/docuvault/internal/limiter"
	"github.com/atrimbitas/docuvault/internal/model"
	"github.com/atrimbitas/docuvault/internal/repository"
	"github.com/atrimbitas/docuvault/internal/token"
	"github.com/atrimbitas/docuvault/internal/totp"
)

// LoginResult is the outcome of the first login step: either a full token
// pair, or an mfa_pending token when a second factor must be verified first.
type LoginResult struct {
	MfaRequired bool
	MfaToken    string
	Tokens      model.TokenPair
}

// Enrollment is the one-time provisioning material returned by MfaEnroll.
// The secret is shown to the account exactly once and stored unencrypted
// until confirmed.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	QRPNG           []byte
}

// TokenTTLs carries the lifetime of each token type.
type TokenTTLs struct {
	Access     time.Duration
	Refresh    time.Duration
	MfaPending time.Duration
}

// AuthService defines the login/MFA/refresh state machine.
type AuthService interface {
	// Login verifies credentials and either mints a token pair or, when a
	// second factor is enrolled, an mfa_pending token.
	Login(ctx context.Context, handle, password, ip string) (LoginResult, error)
	// MfaVerify exchanges an mfa_pending token plus a valid code for a token pair.
	MfaVerify(ctx context.Context, mfaToken, code string) (model.TokenPair, error)
	// Refresh mints a new token pair for the subject of a valid refresh token.
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	// Authenticate resolves an access token to an enabled account.
	Authenticate(ctx context.Context, accessToken string) (*model.Account, error)
	// MfaStatus reports whether the account has an active second factor.
	MfaStatus(ctx context.Context, accountID uuid.UUID) (bool, error)
	// MfaEnroll generates provisioning material; the secret stays unconfirmed.
	MfaEnroll(ctx context.Context, accountID uuid.UUID) (Enrollment, error)
	// MfaConfirm verifies a code against the pending secret and activates MFA.
	MfaConfirm(ctx context.Context, accountID uuid.UUID, code string) error
	// MfaDisable verifies a code against the active secret and clears enrollment.
	MfaDisable(ctx context.Context, accountID uuid.UUID, code string) error
	// Logout is a no-op at this layer; clients discard their tokens.
	Logout()
}

type AuthServiceImpl struct {
	accounts  repository.AccountRepository
	issuer    *token.Issuer
	cipher    *pkgcrypto.Cipher
	ttls      TokenTTLs
	mfaIssuer string
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
// mfaIssuer is the service name shown by authenticator apps.
func NewAuthService(accounts repository.AccountRepository, issuer *token.Issuer, cipher *pkgcrypto.Cipher, ttls TokenTTLs, mfaIssuer string, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{accounts: accounts, issuer: issuer, cipher: cipher, ttls: ttls, mfaIssuer: mfaIssuer, lim: lim}
}

// Login authenticates with rate limiting by (handle, ip). Unknown handle,
// wrong password and disabled account are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, handle, password, ip string) (LoginResult, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, handle, ipHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !allowed {
		return LoginResult{}, errs.ErrRateLimited
	}

	a, err := s.accounts.GetByHandle(ctx, handle)
	if err != nil || !pkgcrypto.VerifyPassword(password, a.PwdDigest) || !a.Enabled {
		if blocked, _, ferr := s.lim.Failure(ctx, handle, ipHash); ferr == nil && blocked {
			return LoginResult{}, errs.ErrRateLimited
		}
		// one error for "no such account", "wrong password" and "disabled"
		return LoginResult{}, errs.ErrInvalidCredentials
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, handle, ipHash)

	if a.TotpOn {
		// No session token yet; only the bridge token for the verify step.
		mfaTok, _, err := s.issuer.Mint(a.ID, token.TypeMfaPending, s.ttls.MfaPending)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{MfaRequired: true, MfaToken: mfaTok}, nil
	}

	pair, err := s.mintPair(a.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Tokens: pair}, nil
}

// MfaVerify checks the bridge token type, decrypts the enrolled secret and
// verifies the code. The mfa_pending token stays usable until it expires,
// including after a successful verification.
func (s *AuthServiceImpl) MfaVerify(ctx context.Context, mfaToken, code string) (model.TokenPair, error) {
	v, err := s.issuer.VerifyType(mfaToken, token.TypeMfaPending)
	if err != nil {
		return model.TokenPair{}, err
	}
	a, err := s.accounts.GetByID(ctx, v.Subject)
	if err != nil {
		return model.TokenPair{}, errs.ErrUnauthorized
	}
	if !a.TotpOn || len(a.TotpSecret) == 0 {
		return model.TokenPair{}, errs.ErrMfaNotEnabled
	}
	secret, err := s.cipher.Open(a.TotpSecret)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("open totp secret: %w", err)
	}
	if !totp.VerifyCode(string(secret), code) {
		return model.TokenPair{}, errs.ErrInvalidCode
	}
	return s.mintPair(a.ID)
}

// Refresh re-mints a pair for the same subject. Stateless: the previous
// refresh token is neither rotated out nor denylisted.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	v, err := s.issuer.VerifyType(refreshToken, token.TypeRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}
	return s.mintPair(v.Subject)
}

// Authenticate resolves an access token to its account; the token is rejected
// if the subject no longer resolves to an enabled account.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, accessToken string) (*model.Account, error) {
	v, err := s.issuer.VerifyType(accessToken, token.TypeAccess)
	if err != nil {
		return nil, err
	}
	a, err := s.accounts.GetByID(ctx, v.Subject)
	if err != nil || !a.Enabled {
		return nil, errs.ErrUnauthorized
	}
	return a, nil
}

// MfaStatus reports whether MFA is active for the account.
func (s *AuthServiceImpl) MfaStatus(ctx context.Context, accountID uuid.UUID) (bool, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return a.TotpOn, nil
}

// MfaEnroll generates a secret and its provisioning material. The secret is
// stored unencrypted until MfaConfirm succeeds.
func (s *AuthServiceImpl) MfaEnroll(ctx context.Context, accountID uuid.UUID) (Enrollment, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return Enrollment{}, err
	}
	if a.TotpOn {
		return Enrollment{}, errs.ErrAlreadyEnabled
	}
	secret, err := totp.GenerateSecret()
	if err != nil {
		return Enrollment{}, err
	}
	uri := totp.ProvisioningURI(secret, a.Handle, s.mfaIssuer)
	png, err := totp.QRCodePNG(uri)
	if err != nil {
		return Enrollment{}, err
	}
	if err := s.accounts.UpdateTotp(ctx, a.ID, []byte(secret), false); err != nil {
		return Enrollment{}, err
	}
	return Enrollment{Secret: secret, ProvisioningURI: uri, QRPNG: png}, nil
}

// MfaConfirm verifies the submitted code against the pending secret, then
// seals the secret and flips the enabled flag. On a wrong code MFA stays off.
func (s *AuthServiceImpl) MfaConfirm(ctx context.Context, accountID uuid.UUID, code string) error {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if a.TotpOn {
		return errs.ErrAlreadyEnabled
	}
	if len(a.TotpSecret) == 0 {
		return errs.ErrMfaNotEnabled
	}
	if !totp.VerifyCode(string(a.TotpSecret), code) {
		return errs.ErrInvalidCode
	}
	sealed, err := s.cipher.Seal(a.TotpSecret)
	if err != nil {
		return err
	}
	return s.accounts.UpdateTotp(ctx, a.ID, sealed, true)
}

// MfaDisable verifies the code against the active secret, then clears
// enrollment and flips the flag off.
func (s *AuthServiceImpl) MfaDisable(ctx context.Context, accountID uuid.UUID, code string) error {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !a.TotpOn || len(a.TotpSecret) == 0 {
		return errs.ErrMfaNotEnabled
	}
	secret, err := s.cipher.Open(a.TotpSecret)
	if err != nil {
		return err
	}
	if !totp.VerifyCode(string(secret), code) {
		return errs.ErrInvalidCode
	}
	return s.accounts.UpdateTotp(ctx, a.ID, nil, false)
}

// Logout is stateless: no server-side revocation exists, the caller discards
// its tokens.
func (s *AuthServiceImpl) Logout() {}

func (s *AuthServiceImpl) mintPair(subject uuid.UUID) (model.TokenPair, error) {
	access, exp, err := s.issuer.Mint(subject, token.TypeAccess, s.ttls.Access)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, _, err := s.issuer.Mint(subject, token.TypeRefresh, s.ttls.Refresh)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}
