package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// GoogleIssuers are the two issuer spellings Google puts in ID tokens.
var GoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// JWTConfig configures ID token verification against a JWKS endpoint.
//
// For Google sign-in, Audience is the OAuth client id the browser used to obtain the token.
type JWTConfig struct {
	Issuers  []string
	Audience string
	JWKSURL  string

	ClockSkew              time.Duration
	JWKSRefreshInterval    time.Duration
	JWKSMinRefreshInterval time.Duration

	HTTPTimeout time.Duration
}

// Enabled reports whether enough is configured to verify tokens.
func (c JWTConfig) Enabled() bool {
	return c.Audience != "" && c.JWKSURL != "" && len(c.Issuers) > 0
}

// LoadJWTConfigFromEnv reads the Google ID token settings.
// An unset GOOGLE_CLIENT_ID is not an error here: sign-in is then reported as unavailable.
func LoadJWTConfigFromEnv() (JWTConfig, error) {
	cfg := JWTConfig{
		Issuers:   GoogleIssuers,
		Audience:  strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		JWKSURL:   getEnvOrDefault("GOOGLE_JWKS_URL", GoogleJWKSURL),
		ClockSkew: 30 * time.Second,
		// Refresh periodically to pick up key rotation even if an old key is still cached.
		JWKSRefreshInterval: 5 * time.Minute,
		// Bound refresh frequency when a token presents an unknown kid (avoid thundering herd).
		JWKSMinRefreshInterval: 10 * time.Second,
		HTTPTimeout:            5 * time.Second,
	}

	if v := os.Getenv("GOOGLE_ISSUERS"); v != "" {
		cfg.Issuers = splitList(v, false)
	}
	if v := os.Getenv("JWT_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return JWTConfig{}, fmt.Errorf("JWT_CLOCK_SKEW must be a duration (e.g. 30s): %w", err)
		}
		cfg.ClockSkew = d
	}
	if v := os.Getenv("JWT_JWKS_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return JWTConfig{}, fmt.Errorf("JWT_JWKS_REFRESH_INTERVAL must be a duration (e.g. 5m): %w", err)
		}
		cfg.JWKSRefreshInterval = d
	}
	if v := os.Getenv("JWT_JWKS_MIN_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return JWTConfig{}, fmt.Errorf("JWT_JWKS_MIN_REFRESH_INTERVAL must be a duration (e.g. 10s): %w", err)
		}
		cfg.JWKSMinRefreshInterval = d
	}

	return cfg, nil
}
