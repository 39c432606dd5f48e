// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// TokenPair collects issued access/refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}

// Account represents a login identity. The TOTP secret is stored in plaintext
// base32 form between enroll and confirm, and as a Cipher blob once enabled.
type Account struct {
	ID         uuid.UUID // PK
	Handle     string    // unique
	Email      string
	FullName   string
	PwdDigest  string // argon2id encoded digest, salt embedded
	Enabled    bool
	TotpSecret []byte // nil when not enrolled
	TotpOn     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SecretRecord is a named opaque value owned by one organization-scoped
// collection. Value holds nonce+ciphertext as a single blob; it is replaced
// wholesale on every update.
type SecretRecord struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	Name      string
	Username  string
	URL       string
	Notes     string
	Value     []byte // sealed; nil when no value stored
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SecretPatch is a partial update: nil fields are left untouched.
type SecretPatch struct {
	Name     *string
	Username *string
	URL      *string
	Notes    *string
	Value    *string // plaintext; sealed by the service before storage
}

// AccessAction enumerates audited operations on a SecretRecord.
type AccessAction string

const (
	ActionCreate AccessAction = "create"
	ActionUpdate AccessAction = "update"
	ActionDelete AccessAction = "delete"
	ActionReveal AccessAction = "reveal"
)

// Valid reports whether the action is one of the audited verbs.
func (a AccessAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionReveal:
		return true
	}
	return false
}

// AccessLogEntry is an immutable audit fact. Entries are append-only and
// never updated or deleted once written.
type AccessLogEntry struct {
	ID        uuid.UUID
	SecretID  uuid.UUID
	AccountID uuid.UUID
	Action    AccessAction
	Origin    string // caller network origin, may be empty
	CreatedAt time.Time
}

// ShareLink gates anonymous bounded-view access to one SecretRecord.
// Token is high-entropy and doubles as the lookup key.
type ShareLink struct {
	ID        uuid.UUID
	SecretID  uuid.UUID
	Token     string
	ExpiresAt *time.Time // nil means no expiry
	MaxViews  *int       // nil means unlimited
	ViewCount int
	Active    bool
	CreatedAt time.Time
}

// AuditFilter narrows audit queries; zero values mean "any".
type AuditFilter struct {
	SecretID uuid.UUID
	Action   AccessAction
	Page     int
	PageSize int
}

// SecretFilter narrows secret listing; zero values mean "any".
type SecretFilter struct {
	OrgID    uuid.UUID
	Search   string
	Page     int
	PageSize int
}
