package token

import (
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/atrimbitas/docuvault/internal/errs"
)

func TestIssuer_MintVerify(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("signing-secret"))
	subject := uuid.Must(uuid.NewV4())

	raw, exp, err := iss.Mint(subject, TypeAccess, 15*time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry not in the future: %v", exp)
	}

	v, err := iss.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if v.Subject != subject {
		t.Fatalf("subject: got %s want %s", v.Subject, subject)
	}
	if v.Type != TypeAccess {
		t.Fatalf("type: got %s want %s", v.Type, TypeAccess)
	}
	if !v.ExpiresAt.Equal(exp.Truncate(time.Second)) {
		t.Fatalf("expiry: got %v want %v", v.ExpiresAt, exp.Truncate(time.Second))
	}
}

func TestIssuer_Expired(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("k"))
	raw, _, err := iss.Mint(uuid.Must(uuid.NewV4()), TypeAccess, -time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := iss.Verify(raw); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for expired token, got %v", err)
	}
}

func TestIssuer_WrongKeyAndGarbage(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("k1"))
	raw, _, err := iss.Mint(uuid.Must(uuid.NewV4()), TypeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	other := NewIssuer([]byte("k2"))
	if _, err := other.Verify(raw); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for wrong key, got %v", err)
	}
	if _, err := iss.Verify("not.a.token"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for garbage, got %v", err)
	}
	if _, err := iss.Verify(""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for empty input, got %v", err)
	}
}

func TestIssuer_TypeTagEnforced(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("k"))
	subject := uuid.Must(uuid.NewV4())

	pending, _, err := iss.Mint(subject, TypeMfaPending, time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	// A valid mfa_pending token can never pass where access is required,
	// and vice versa.
	if _, err := iss.VerifyType(pending, TypeAccess); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("mfa_pending accepted as access: %v", err)
	}
	access, _, err := iss.Mint(subject, TypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := iss.VerifyType(access, TypeMfaPending); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("access accepted as mfa_pending: %v", err)
	}
	if _, err := iss.VerifyType(pending, TypeMfaPending); err != nil {
		t.Fatalf("correct type rejected: %v", err)
	}
}
