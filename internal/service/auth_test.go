package service

import (
	"context"
	"errors"
	"testing"
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

type fakeAccounts struct {
	byHandle map[string]*model.Account
}

var _ repository.AccountRepository = (*fakeAccounts)(nil)

func (f *fakeAccounts) Create(_ context.Context, a *model.Account) error {
	if f.byHandle == nil {
		f.byHandle = map[string]*model.Account{}
	}
	if _, exists := f.byHandle[a.Handle]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *a
	f.byHandle[a.Handle] = &cpy
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	for _, a := range f.byHandle {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeAccounts) GetByHandle(_ context.Context, handle string) (*model.Account, error) {
	a, ok := f.byHandle[handle]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeAccounts) UpdateTotp(_ context.Context, id uuid.UUID, secret []byte, enabled bool) error {
	for _, a := range f.byHandle {
		if a.ID == id {
			a.TotpSecret = append([]byte(nil), secret...)
			if secret == nil {
				a.TotpSecret = nil
			}
			a.TotpOn = enabled
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeLimiter struct {
	allowOK     bool
	failBlocked bool

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, nil
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, nil
}

func newAuthFixture(t *testing.T) (*AuthServiceImpl, *fakeAccounts, *pkgcrypto.Cipher) {
	t.Helper()
	key, err := pkgcrypto.RandBytes(pkgcrypto.KeySize)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	cipher, err := pkgcrypto.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	accounts := &fakeAccounts{byHandle: map[string]*model.Account{}}
	svc := NewAuthService(accounts, token.NewIssuer([]byte("test-sign-key")), cipher, TokenTTLs{
		Access:     15 * time.Minute,
		Refresh:    7 * 24 * time.Hour,
		MfaPending: 5 * time.Minute,
	}, "DocuVault", &fakeLimiter{allowOK: true})
	return svc, accounts, cipher
}

func addAccount(t *testing.T, accounts *fakeAccounts, handle, password string, enabled bool) uuid.UUID {
	t.Helper()
	digest, err := pkgcrypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	id := uuid.Must(uuid.NewV4())
	if err := accounts.Create(context.Background(), &model.Account{
		ID: id, Handle: handle, PwdDigest: digest, Enabled: enabled,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return id
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	t.Parallel()
	svc, accounts, _ := newAuthFixture(t)
	addAccount(t, accounts, "alice", "pw", true)
	addAccount(t, accounts, "mallory", "pw", false) // disabled

	ctx := context.Background()
	_, errNoAccount := svc.Login(ctx, "nobody", "pw", "1.2.3.4")
	_, errWrongPw := svc.Login(ctx, "alice", "wrong", "1.2.3.4")
	_, errDisabled := svc.Login(ctx, "mallory", "pw", "1.2.3.4")

	for _, err := range []error{errNoAccount, errWrongPw, errDisabled} {
		if !errors.Is(err, errs.ErrInvalidCredentials) {
			t.Fatalf("want ErrInvalidCredentials, got %v", err)
		}
	}
	if errNoAccount.Error() != errWrongPw.Error() || errWrongPw.Error() != errDisabled.Error() {
		t.Fatalf("error messages differ: %q / %q / %q", errNoAccount, errWrongPw, errDisabled)
	}
}

func TestLogin_NoMfa_MintsPair(t *testing.T) {
	t.Parallel()
	svc, accounts, _ := newAuthFixture(t)
	addAccount(t, accounts, "alice", "pw", true)

	res, err := svc.Login(context.Background(), "alice", "pw", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.MfaRequired {
		t.Fatalf("mfa unexpectedly required")
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("missing tokens: %+v", res.Tokens)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	t.Parallel()
	svc, accounts, _ := newAuthFixture(t)
	addAccount(t, accounts, "alice", "pw", true)
	svc.lim = &fakeLimiter{allowOK: false}

	if _, err := svc.Login(context.Background(), "alice", "pw", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
}

// enrollAndConfirm walks an account through enroll+confirm and returns the base32 secret.
func enrollAndConfirm(t *testing.T, svc *AuthServiceImpl, id uuid.UUID) string {
	t.Helper()
	ctx := context.Background()
	enr, err := svc.MfaEnroll(ctx, id)
	if err != nil {
		t.Fatalf("MfaEnroll: %v", err)
	}
	code, err := totp.CodeAt(enr.Secret, time.Now())
	if err != nil {
		t.Fatalf("CodeAt: %v", err)
	}
	if err := svc.MfaConfirm(ctx, id, code); err != nil {
		t.Fatalf("MfaConfirm: %v", err)
	}
	return enr.Secret
}

func TestMfaLifecycle(t *testing.T) {
	t.Parallel()
	svc, accounts, cipher := newAuthFixture(t)
	id := addAccount(t, accounts, "alice", "pw", true)
	ctx := context.Background()

	enr, err := svc.MfaEnroll(ctx, id)
	if err != nil {
		t.Fatalf("MfaEnroll: %v", err)
	}
	if enr.Secret == "" || enr.ProvisioningURI == "" || len(enr.QRPNG) == 0 {
		t.Fatalf("incomplete enrollment material: %+v", enr)
	}

	// Wrong code leaves MFA disabled.
	if err := svc.MfaConfirm(ctx, id, "000000"); !errors.Is(err, errs.ErrInvalidCode) {
		t.Fatalf("want ErrInvalidCode, got %v", err)
	}
	if on, _ := svc.MfaStatus(ctx, id); on {
		t.Fatalf("mfa enabled after failed confirm")
	}

	code, err := totp.CodeAt(enr.Secret, time.Now())
	if err != nil {
		t.Fatalf("CodeAt: %v", err)
	}
	if err := svc.MfaConfirm(ctx, id, code); err != nil {
		t.Fatalf("MfaConfirm: %v", err)
	}
	if on, _ := svc.MfaStatus(ctx, id); !on {
		t.Fatalf("mfa not enabled after confirm")
	}

	// Stored secret is sealed now, not the raw base32.
	a, _ := accounts.GetByID(ctx, id)
	if string(a.TotpSecret) == enr.Secret {
		t.Fatalf("totp secret stored unencrypted after confirm")
	}
	opened, err := cipher.Open(a.TotpSecret)
	if err != nil {
		t.Fatalf("stored secret not a cipher blob: %v", err)
	}
	if string(opened) != enr.Secret {
		t.Fatalf("sealed secret mismatch")
	}

	// Second enrollment is rejected.
	if _, err := svc.MfaEnroll(ctx, id); !errors.Is(err, errs.ErrAlreadyEnabled) {
		t.Fatalf("want ErrAlreadyEnabled, got %v", err)
	}
	if err := svc.MfaConfirm(ctx, id, code); !errors.Is(err, errs.ErrAlreadyEnabled) {
		t.Fatalf("confirm after enable: want ErrAlreadyEnabled, got %v", err)
	}

	// Disable requires a valid code.
	if err := svc.MfaDisable(ctx, id, "000000"); !errors.Is(err, errs.ErrInvalidCode) {
		t.Fatalf("want ErrInvalidCode, got %v", err)
	}
	code, _ = totp.CodeAt(enr.Secret, time.Now())
	if err := svc.MfaDisable(ctx, id, code); err != nil {
		t.Fatalf("MfaDisable: %v", err)
	}
	if on, _ := svc.MfaStatus(ctx, id); on {
		t.Fatalf("mfa still enabled after disable")
	}
	if err := svc.MfaDisable(ctx, id, code); !errors.Is(err, errs.ErrMfaNotEnabled) {
		t.Fatalf("want ErrMfaNotEnabled, got %v", err)
	}
}

func TestLogin_WithMfa_ReturnsOnlyPendingToken(t *testing.T) {
	t.Parallel()
	svc, accounts, _ := newAuthFixture(t)
	id := addAccount(t, accounts, "alice", "pw", true)
	secret := enrollAndConfirm(t, svc, id)
	ctx := context.Background()

	res, err := svc.Login(ctx, "alice", "pw", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.MfaRequired || res.MfaToken == "" {
		t.Fatalf("expected mfa_required with token, got %+v", res)
	}
	if res.Tokens.AccessToken != "" || res.Tokens.RefreshToken != "" {
		t.Fatalf("session tokens issued before mfa verify")
	}

	// Wrong code keeps the pending state; the same token can be retried.
	if _, err := svc.MfaVerify(ctx, res.MfaToken, "000000"); !errors.Is(err, errs.ErrInvalidCode) {
		t.Fatalf("want ErrInvalidCode, got %v", err)
	}
	code, _ := totp.CodeAt(secret, time.Now())
	pair, err := svc.MfaVerify(ctx, res.MfaToken, code)
	if err != nil {
		t.Fatalf("MfaVerify: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("missing tokens: %+v", pair)
	}
}

func TestMfaVerify_RejectsWrongTokenType(t *testing.T) {
	t.Parallel()
	svc, accounts, _ := newAuthFixture(t)
	id := addAccount(t, accounts, "alice", "pw", true)
	enrollAndConfirm(t, svc, id)
	ctx := context.Background()

	// An access token minted out-of-band must not work as an mfa_pending bridge.
	pair, err := svc.Refresh(ctx, mustMint(t, svc, id, token.TypeRefresh))
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := svc.MfaVerify(ctx, pair.AccessToken, "000000"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for access token, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	svc, accounts, _ := newAuthFixture(t)
	id := addAccount(t, accounts, "alice", "pw", true)
	ctx := context.Background()

	refresh := mustMint(t, svc, id, token.TypeRefresh)
	pair, err := svc.Refresh(ctx, refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("missing tokens: %+v", pair)
	}

	// Access tokens are not refresh tokens.
	if _, err := svc.Refresh(ctx, pair.AccessToken); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	svc, accounts, _ := newAuthFixture(t)
	id := addAccount(t, accounts, "alice", "pw", true)
	ctx := context.Background()

	access := mustMint(t, svc, id, token.TypeAccess)
	a, err := svc.Authenticate(ctx, access)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if a.ID != id {
		t.Fatalf("wrong account resolved")
	}

	// Wrong type and unknown subject are both rejected.
	refresh := mustMint(t, svc, id, token.TypeRefresh)
	if _, err := svc.Authenticate(ctx, refresh); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("refresh accepted as access: %v", err)
	}

	// Disabling the account invalidates otherwise-valid tokens.
	accounts.byHandle["alice"].Enabled = false
	if _, err := svc.Authenticate(ctx, access); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("token for disabled account accepted: %v", err)
	}
}

func mustMint(t *testing.T, svc *AuthServiceImpl, subject uuid.UUID, typ token.Type) string {
	t.Helper()
	ttl := svc.ttls.Access
	if typ == token.TypeRefresh {
		ttl = svc.ttls.Refresh
	}
	raw, _, err := svc.issuer.Mint(subject, typ, ttl)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return raw
}
