// Package totp implements RFC 6238 time-based one-time passwords for
// second-factor enrollment and verification.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/atrimbitas/docuvault/internal/crypto"
)

const (
	// Digits per code and step length follow the RFC 6238 defaults used by
	// all mainstream authenticator apps.
	Digits = 6
	Period = 30 * time.Second

	secretLen = 20 // 160-bit secret, RFC 4226 recommendation
	qrSize    = 256
)

var (
	b32         = base32.StdEncoding.WithPadding(base32.NoPadding)
	secretRegex = regexp.MustCompile("^[A-Z2-7]+$")
	codeRegex   = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, Digits))
)

// GenerateSecret returns a fresh cryptographically random base32 secret.
func GenerateSecret() (string, error) {
	raw, err := crypto.RandBytes(secretLen)
	if err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// ProvisioningURI builds an otpauth:// URI for authenticator apps, per the
// Google Authenticator Key Uri Format.
func ProvisioningURI(secret, accountLabel, issuer string) string {
	label := fmt.Sprintf("%s:%s", url.PathEscape(issuer), url.PathEscape(accountLabel))
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", Digits))
	q.Set("period", fmt.Sprintf("%d", int(Period.Seconds())))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// QRCodePNG renders the provisioning URI as a PNG for enrollment display.
func QRCodePNG(uri string) ([]byte, error) {
	return qrcode.Encode(uri, qrcode.Medium, qrSize)
}

// VerifyCode checks a submitted code against the secret, accepting the
// current 30-second step and one step of clock skew in either direction.
func VerifyCode(secret, code string) bool {
	return VerifyCodeAt(secret, code, time.Now())
}

// VerifyCodeAt is VerifyCode against an explicit instant.
func VerifyCodeAt(secret, code string, at time.Time) bool {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if !secretRegex.MatchString(secret) {
		return false
	}
	key, err := b32.DecodeString(secret)
	if err != nil {
		return false
	}
	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return false
	}
	counter := at.Unix() / int64(Period.Seconds())
	for skew := int64(-1); skew <= 1; skew++ {
		if hotp(key, counter+skew) == code {
			return true
		}
	}
	return false
}

// CodeAt returns the code for the step containing the given instant.
// Used for enrollment self-checks and tests.
func CodeAt(secret string, at time.Time) (string, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if !secretRegex.MatchString(secret) {
		return "", fmt.Errorf("malformed base32 secret")
	}
	key, err := b32.DecodeString(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, at.Unix()/int64(Period.Seconds())), nil
}

// hotp implements the RFC 4226 HMAC-SHA1 counter-based code with dynamic
// truncation.
func hotp(key []byte, counter int64) string {
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter & 0xff)
		counter >>= 8
	}
	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	v := (uint32(sum[offset]&0x7f) << 24) |
		(uint32(sum[offset+1]) << 16) |
		(uint32(sum[offset+2]) << 8) |
		uint32(sum[offset+3])
	return fmt.Sprintf("%06d", v%1_000_000)
}
