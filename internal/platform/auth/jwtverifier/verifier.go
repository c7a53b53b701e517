// Package jwtverifier verifies Google ID tokens (RS256) against a JWKS endpoint.
package jwtverifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aashkara-band/site-api/internal/platform/config"
)

var ErrUnauthorized = errors.New("unauthorized")

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Verifier struct {
	issuers []string
	keys    *keySet
	parser  *jwt.Parser
}

func New(cfg config.JWTConfig) *Verifier {
	return NewWithOptions(cfg, nil, nil)
}

func NewWithOptions(cfg config.JWTConfig, httpClient *http.Client, clock Clock) *Verifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if clock == nil {
		clock = realClock{}
	}
	return &Verifier{
		issuers: cfg.Issuers,
		keys: &keySet{
			url:    cfg.JWKSURL,
			client: httpClient,
			clock:  clock,
			maxAge: cfg.JWKSRefreshInterval,
			minGap: cfg.JWKSMinRefreshInterval,
		},
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.ClockSkew),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

// Verify checks the RS256 signature against the JWKS key named by the token's kid, then
// aud, exp, nbf (when present), iss (any configured issuer) and sub. Every failure wraps
// ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (Claims, error) {
	var c idTokenClaims
	_, err := v.parser.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid")
		}
		pub, err := v.keys.key(ctx, kid)
		if err != nil {
			return nil, err
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !slices.Contains(v.issuers, c.Issuer) {
		return Claims{}, fmt.Errorf("%w: issuer %q not accepted", ErrUnauthorized, c.Issuer)
	}
	if c.Subject == "" {
		return Claims{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return c.identity(), nil
}
