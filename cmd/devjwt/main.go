package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aashkara-band/site-api/internal/platform/auth/jwks_testutil"
	"github.com/aashkara-band/site-api/internal/platform/logging"
)

// Tiny dev-only stand-in for Google's ID token issuer.
//
// It serves a JWKS document and mints RS256 tokens carrying email, name and picture, so
// the admin sign-in flow can run locally with real verification. Point the API at it with
// GOOGLE_JWKS_URL, GOOGLE_ISSUERS and GOOGLE_CLIENT_ID.

func main() {
	port := getenv("PORT", "5556")
	issuer := getenv("ISSUER", "http://devjwt:5556")
	audience := getenv("AUDIENCE", "dev-client.apps.googleusercontent.com")
	kid := getenv("KID", "dev-kid-1")
	ttl := getenvDuration("TTL", 30*time.Minute)

	log := logging.New(logging.Config{Level: getenv("LOG_LEVEL", "info"), Format: getenv("LOG_FORMAT", "text")})

	kp, err := jwks_testutil.GenerateRSAKeypair(kid)
	if err != nil {
		log.Fatal().Err(err).Msg("generate key")
	}
	jwksJSON := jwks_testutil.JWKSDocument([]jwks_testutil.Keypair{kp})

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(jwksJSON)
	})

	// Mint an ID token:
	//   GET /token?email=admin@example.com&name=Admin&verified=true
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		email := strings.TrimSpace(q.Get("email"))
		if email == "" {
			http.Error(w, "missing email", http.StatusBadRequest)
			return
		}
		verified := true
		if v := q.Get("verified"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, "verified must be a boolean", http.StatusBadRequest)
				return
			}
			verified = b
		}
		sub := strings.TrimSpace(q.Get("sub"))
		if sub == "" {
			sub = uuid.NewSHA1(uuid.NameSpaceURL, []byte("devjwt:"+email)).String()
		}
		id := jwks_testutil.Identity{
			Email:         email,
			EmailVerified: verified,
			Name:          strings.TrimSpace(q.Get("name")),
			Picture:       strings.TrimSpace(q.Get("picture")),
		}

		now := time.Now().UTC()
		// Small skew tolerance for local use.
		nbf := -5 * time.Second
		token, err := jwks_testutil.MintRS256JWT(kp, issuer, audience, sub, now, ttl, &nbf, id.Claims())
		if err != nil {
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"credential": token,
			"sub":        sub,
			"email":      email,
			"iss":        issuer,
			"aud":        audience,
			"exp":        now.Add(ttl).Unix(),
		})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("port", port).Str("iss", issuer).Str("aud", audience).Str("kid", kid).Dur("ttl", ttl).Msg("devjwt listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
