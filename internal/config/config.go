// Package config loads service configuration from the environment.
package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // load .env in dev
)

// Config carries everything the process needs: keys, TTLs and the DSN.
// Secrets are injected here at startup and are immutable afterwards.
type Config struct {
	Addr        string `env:"DV_ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"DV_DATABASE_DSN,required"`

	// EncryptionKey is the base64-encoded 32-byte static key for the secret cipher.
	EncryptionKey string `env:"DV_ENCRYPTION_KEY,required"`
	// SigningKey is the shared HS256 token-signing secret.
	SigningKey string `env:"DV_SIGNING_KEY,required"`

	AccessTTL  time.Duration `env:"DV_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"DV_REFRESH_TTL" envDefault:"168h"`
	MfaTTL     time.Duration `env:"DV_MFA_TTL" envDefault:"5m"`

	// MfaIssuer is the service name shown by authenticator apps.
	MfaIssuer string `env:"DV_MFA_ISSUER" envDefault:"DocuVault"`

	// Seed account provisioned at startup when it does not exist yet.
	SeedHandle   string `env:"DV_SEED_HANDLE" envDefault:"admin"`
	SeedPassword string `env:"DV_SEED_PASSWORD"`

	// Login rate limiting.
	LoginWindow   time.Duration `env:"DV_LOGIN_WINDOW" envDefault:"15m"`
	LoginMaxFails int           `env:"DV_LOGIN_MAX_FAILS" envDefault:"5"`
	LoginBlockFor time.Duration `env:"DV_LOGIN_BLOCK_FOR" envDefault:"15m"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// CipherKey decodes and validates the encryption key.
func (c Config) CipherKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
