package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/adapters/emailjs"
	"github.com/aashkara-band/site-api/internal/adapters/httpapi"
	memclock "github.com/aashkara-band/site-api/internal/adapters/memory/clock"
	memkv "github.com/aashkara-band/site-api/internal/adapters/memory/kvstore"
	pgkv "github.com/aashkara-band/site-api/internal/adapters/postgres/kvstore"
	postgres_testutil "github.com/aashkara-band/site-api/internal/adapters/postgres/testutil"
	"github.com/aashkara-band/site-api/internal/app/admin"
	"github.com/aashkara-band/site-api/internal/app/editor"
	"github.com/aashkara-band/site-api/internal/app/identity"
	"github.com/aashkara-band/site-api/internal/app/inquiry"
	"github.com/aashkara-band/site-api/internal/app/profile"
	"github.com/aashkara-band/site-api/internal/platform/auth/jwks_testutil"
	"github.com/aashkara-band/site-api/internal/platform/auth/jwtverifier"
	"github.com/aashkara-band/site-api/internal/platform/config"
	"github.com/aashkara-band/site-api/internal/platform/ids"
	"github.com/aashkara-band/site-api/internal/platform/metrics"
	kvport "github.com/aashkara-band/site-api/internal/ports/out/kvstore"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

// signInTTL is shorter than the cookie lifetime so a cookie can outlive its sign-in.
const (
	signInTTL = 30 * time.Minute
	cookieTTL = time.Hour
)

const (
	googleClientID = "itest-client.apps.googleusercontent.com"
	adminEmail     = "admin@aashkara.test"
	allowedOrigin  = "https://aashkara.test"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

// emailStub stands in for the EmailJS REST endpoint.
type emailStub struct {
	mu       sync.Mutex
	payloads []map[string]any
	// statusByTemplate makes sends to a template id fail with the given status.
	statusByTemplate map[string]int
}

func (s *emailStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p map[string]any
	_ = json.NewDecoder(r.Body).Decode(&p)

	tpl, _ := p["template_id"].(string)
	s.mu.Lock()
	s.payloads = append(s.payloads, p)
	status := s.statusByTemplate[tpl]
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("template rejected"))
		return
	}
	_, _ = w.Write([]byte("OK"))
}

func (s *emailStub) sent() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.payloads...)
}

type serverOptions struct {
	credentials inquiry.Credentials
	adminEmails []string
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		credentials: inquiry.Credentials{
			PublicKey:           "pub",
			ServiceID:           "svc",
			InquiryTemplateID:   "tpl-inquiry",
			AutoReplyTemplateID: "tpl-autoreply",
		},
		adminEmails: []string{adminEmail},
	}
}

type testServer struct {
	baseURL string
	clock   *memclock.ManualClock
	email   *emailStub
	metrics *metrics.Metrics
	store   kvport.Store
	key     jwks_testutil.Keypair
}

func newTestServer(t *testing.T, b backend, opts serverOptions) *testServer {
	t.Helper()

	// Cookies are checked against the wall clock by the client jar, so the manual clock
	// starts at the real time.
	clk := memclock.NewManualClock(time.Now().UTC().Truncate(time.Second))

	var store kvport.Store
	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		store = pgkv.NewStore(pool)
	case backendMemory:
		store = memkv.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	jwksSrv, setKeys := jwks_testutil.NewRotatingJWKSServer()
	t.Cleanup(jwksSrv.Close)
	kp, err := jwks_testutil.GenerateRSAKeypair("itest-kid")
	if err != nil {
		t.Fatalf("GenerateRSAKeypair: %v", err)
	}
	setKeys([]jwks_testutil.Keypair{kp})

	stub := &emailStub{statusByTemplate: map[string]int{}}
	emailSrv := httptest.NewServer(stub)
	t.Cleanup(emailSrv.Close)

	m := metrics.New()
	log := zerolog.Nop()

	verifier := jwtverifier.NewWithOptions(config.JWTConfig{
		Issuers:             config.GoogleIssuers,
		Audience:            googleClientID,
		JWKSURL:             jwksSrv.URL,
		JWKSRefreshInterval: time.Hour,
		HTTPTimeout:         2 * time.Second,
	}, nil, clk)

	profiles := profile.NewService(store, config.DefaultStorageKey, profile.DefaultProfile(profile.Overrides{}), log)
	authorizer := admin.NewAuthorizer(opts.adminEmails)
	provider := identity.NewProvider(verifier, authorizer, clk, signInTTL, m, log)
	editors := editor.NewSessions(profiles, m)
	provider.OnSessionEnd(editors.Drop)
	dispatcher := inquiry.NewDispatcher(emailjs.New(emailSrv.URL, 2*time.Second), opts.credentials, clk, nil, m, ids.NewULID, log)

	api := httpapi.NewServer(httpapi.Services{
		Profile:    profiles,
		Authorizer: authorizer,
		Identity:   provider,
		Inquiries:  dispatcher,
		Editors:    editors,
		Metrics:    m,
		Ready: func(ctx context.Context) error {
			_, _, err := store.Get(ctx, config.DefaultStorageKey)
			return err
		},
	})
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Logger:        log,
		Sessions:      httpapi.NewSessionCodec([]byte(strings.Repeat("s", 32)), cookieTTL, clk),
		CookieName:    "itest_session",
		CookieSecure:  false,
		AllowedOrigin: allowedOrigin,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		clock:   clk,
		email:   stub,
		metrics: m,
		store:   store,
		key:     kp,
	}
}

// credential mints a Google-style ID token for email.
func (s *testServer) credential(t *testing.T, email string, verified bool) string {
	t.Helper()
	tok, err := jwks_testutil.MintRS256JWT(s.key, "https://accounts.google.com", googleClientID,
		"google|"+email, s.clock.Now(), 10*time.Minute, nil,
		jwks_testutil.Identity{Email: email, EmailVerified: verified, Name: "Test " + email}.Claims())
	if err != nil {
		t.Fatalf("MintRS256JWT: %v", err)
	}
	return tok
}

// browser is one client with its own cookie jar, i.e. one session.
type browser struct {
	srv    *testServer
	client *http.Client
}

func (s *testServer) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &browser{srv: s, client: &http.Client{Jar: jar, Timeout: 5 * time.Second}}
}

func (b *browser) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return b.srv.baseURL + path
	}
	return b.srv.baseURL + "/" + path
}

func (b *browser) doJSON(t *testing.T, method string, path string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			bb, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			raw = string(bb)
		}
		r = bytes.NewReader([]byte(raw))
	}
	req, err := http.NewRequest(method, b.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

func (b *browser) signIn(t *testing.T, email string) {
	t.Helper()
	status, body, _ := b.doJSON(t, http.MethodPost, "/auth/google", map[string]any{
		"credential": b.srv.credential(t, email, true),
	})
	if status != http.StatusOK {
		t.Fatalf("sign in status=%d body=%s", status, string(body))
	}
}

type errorResponse struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID string         `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) errorResponse {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	if got.Error.RequestID == "" {
		t.Fatalf("expected requestId in error body=%s", string(body))
	}
	return got
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
