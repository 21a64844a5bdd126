package token

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const minKeyLen = 32

// Config holds signing material and claim defaults. Values come from the
// environment and are never compiled in.
type Config struct {
	Key            []byte
	Issuer         string
	Audience       string
	Expiration     time.Duration
	RevokeOnLogout bool
}

// ConfigFromEnv reads JWT_KEY, JWT_ISSUER, JWT_AUDIENCE, JWT_EXPIRATION and
// JWT_REVOKE_ON_LOGOUT.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Key:            []byte(os.Getenv("JWT_KEY")),
		Issuer:         envOr("JWT_ISSUER", "pitchfork-todo"),
		Audience:       envOr("JWT_AUDIENCE", "pitchfork-todo"),
		Expiration:     7 * 24 * time.Hour,
		RevokeOnLogout: true,
	}
	if v := os.Getenv("JWT_EXPIRATION"); v != "" {
		d, err := ParseExpiration(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Expiration = d
	}
	if v := os.Getenv("JWT_REVOKE_ON_LOGOUT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: JWT_REVOKE_ON_LOGOUT: %v", ErrConfig, err)
		}
		cfg.RevokeOnLogout = b
	}
	return cfg, cfg.Validate()
}

// Validate checks the config is usable for signing.
func (c Config) Validate() error {
	if len(c.Key) < minKeyLen {
		return fmt.Errorf("%w: key must be at least %d bytes", ErrConfig, minKeyLen)
	}
	if c.Issuer == "" || c.Audience == "" {
		return fmt.Errorf("%w: issuer and audience are required", ErrConfig)
	}
	if c.Expiration <= 0 {
		return fmt.Errorf("%w: expiration must be positive", ErrConfig)
	}
	return nil
}

// ParseExpiration accepts a Go duration ("90m", "12h") or a whole or
// fractional number of days ("7d", "0.5d").
func ParseExpiration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: invalid expiration %q", ErrConfig, s)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: invalid expiration %q", ErrConfig, s)
	}
	return d, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
