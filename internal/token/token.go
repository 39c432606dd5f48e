// Package token issues and verifies signed bearer tokens carrying a subject
// and a type tag. Tokens are self-contained; validity is computed from the
// signature and claims, never looked up.
package token

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/atrimbitas/docuvault/internal/errs"
)

// Type tags a token with its single permitted use.
type Type string

const (
	TypeAccess     Type = "access"
	TypeRefresh    Type = "refresh"
	TypeMfaPending Type = "mfa_pending"
)

// Claims is the signed payload: registered claims plus the type tag.
type Claims struct {
	TokenType Type `json:"type"`
	jwt.RegisteredClaims
}

// Verified is the result of a successful Verify.
type Verified struct {
	Subject   uuid.UUID
	Type      Type
	ExpiresAt time.Time
}

// Issuer mints and verifies HS256 tokens under a shared signing secret.
type Issuer struct {
	signKey []byte
}

// NewIssuer constructs an Issuer. The key is injected at startup and
// immutable thereafter.
func NewIssuer(signKey []byte) *Issuer {
	return &Issuer{signKey: signKey}
}

// Mint signs a token of the given type for the subject, valid for ttl.
func (i *Issuer) Mint(subject uuid.UUID, typ Type, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signKey)
	return signed, exp, err
}

// Verify checks the signature and expiry and returns the subject and type
// tag for the caller to enforce. Any failure maps to errs.ErrUnauthorized.
func (i *Issuer) Verify(raw string) (Verified, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return Verified{}, errs.ErrUnauthorized
	}
	sub, err := uuid.FromString(claims.Subject)
	if err != nil {
		return Verified{}, errs.ErrUnauthorized
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return Verified{Subject: sub, Type: claims.TokenType, ExpiresAt: exp}, nil
}

// VerifyType is Verify plus a type-tag check; a valid token of the wrong
// type is rejected the same way as an invalid one.
func (i *Issuer) VerifyType(raw string, want Type) (Verified, error) {
	v, err := i.Verify(raw)
	if err != nil {
		return Verified{}, err
	}
	if v.Type != want {
		return Verified{}, errs.ErrUnauthorized
	}
	return v, nil
}
