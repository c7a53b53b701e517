package jwtverifier

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// maxJWKSBytes bounds the JWKS document read from the network.
const maxJWKSBytes = 1 << 20

// keySet caches the RSA signing keys published at a JWKS URL.
//
// The set is refetched when it is older than maxAge, and when a token names an unknown
// kid, but then no more often than once per minGap. Concurrent callers share one fetch.
type keySet struct {
	url    string
	client *http.Client
	clock  Clock
	maxAge time.Duration
	minGap time.Duration

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	pending   *fetchCall
}

type fetchCall struct {
	done chan struct{}
	err  error
}

// key returns the public key for kid.
func (ks *keySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if err := ks.refreshIfNeeded(ctx, kid); err != nil {
		return nil, err
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if k, ok := ks.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("no signing key for kid %q", kid)
}

func (ks *keySet) refreshIfNeeded(ctx context.Context, kid string) error {
	ks.mu.Lock()
	if !ks.needsFetchLocked(kid) {
		ks.mu.Unlock()
		return nil
	}
	if call := ks.pending; call != nil {
		ks.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &fetchCall{done: make(chan struct{})}
	ks.pending = call
	ks.mu.Unlock()

	keys, err := ks.fetch(ctx)

	ks.mu.Lock()
	if err == nil {
		ks.keys = keys
		ks.fetchedAt = ks.clock.Now()
	}
	ks.pending = nil
	ks.mu.Unlock()

	call.err = err
	close(call.done)
	return err
}

func (ks *keySet) needsFetchLocked(kid string) bool {
	if ks.fetchedAt.IsZero() {
		return true
	}
	age := ks.clock.Now().Sub(ks.fetchedAt)
	if ks.maxAge > 0 && age >= ks.maxAge {
		return true
	}
	if _, known := ks.keys[kid]; known {
		return false
	}
	return ks.minGap <= 0 || age >= ks.minGap
}

func (ks *keySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := ks.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("jwks fetch failed: status=%d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	out := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		pub, err := k.rsaPublicKey()
		if err != nil {
			continue
		}
		out[k.Kid] = pub
	}
	if len(out) == 0 {
		return nil, errors.New("jwks has no usable RSA signing keys")
	}
	return out, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" || k.Kid == "" || (k.Use != "" && k.Use != "sig") {
		return nil, errors.New("not an RSA signing key")
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil || len(n) == 0 {
		return nil, errors.New("bad modulus")
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil || len(e) == 0 {
		return nil, errors.New("bad exponent")
	}
	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 3 || exp.Int64() > 1<<31-1 {
		return nil, errors.New("exponent out of range")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}
