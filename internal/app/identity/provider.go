// Package identity binds verified Google identities to browser sessions and publishes
// session changes to subscribers.
package identity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/domain"
	"github.com/aashkara-band/site-api/internal/platform/auth/jwtverifier"
	clockport "github.com/aashkara-band/site-api/internal/ports/out/clock"
)

// Verifier checks a Google ID token credential.
type Verifier interface {
	Verify(ctx context.Context, token string) (jwtverifier.Claims, error)
}

// AllowList decides whether an email may administer the site.
type AllowList interface {
	IsAuthorizedAdmin(email string) bool
}

type Metrics interface {
	IncSignIn(result string)
}

// Listener receives the current identity, or nil when signed out.
type Listener func(*domain.AdminIdentity)

type session struct {
	claims    jwtverifier.Claims
	expiresAt time.Time
}

// ended is a session removed from the table together with the listeners to tell.
type ended struct {
	sid  domain.SessionID
	subs []Listener
}

type Provider struct {
	verifier Verifier
	allow    AllowList
	clk      clockport.Clock
	ttl      time.Duration
	metrics  Metrics
	log      zerolog.Logger

	// notifyMu orders deliveries: a subscriber's initial state always precedes the
	// transitions that follow it. Listeners must not call back into the Provider.
	notifyMu sync.Mutex

	mu        sync.Mutex
	sessions  map[domain.SessionID]session
	listeners map[domain.SessionID]map[uint64]Listener
	nextID    uint64
	onEnd     []func(domain.SessionID)
}

// NewProvider returns a provider. A nil verifier means sign-in is not configured and every
// SignIn fails with *AuthError.
func NewProvider(v Verifier, allow AllowList, clk clockport.Clock, ttl time.Duration, m Metrics, log zerolog.Logger) *Provider {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Provider{
		verifier:  v,
		allow:     allow,
		clk:       clk,
		ttl:       ttl,
		metrics:   m,
		log:       log.With().Str("component", "identity").Logger(),
		sessions:  make(map[domain.SessionID]session),
		listeners: make(map[domain.SessionID]map[uint64]Listener),
	}
}

// Ready reports whether sign-in can succeed at all.
func (p *Provider) Ready() bool { return p.verifier != nil }

// OnSessionEnd registers fn to run after a signed-in session signs out or expires, once
// its listeners have been told. fn must not call back into the Provider.
func (p *Provider) OnSessionEnd(fn func(domain.SessionID)) {
	p.mu.Lock()
	p.onEnd = append(p.onEnd, fn)
	p.mu.Unlock()
}

// SignIn verifies credential and binds the identity to sid. Signing in again on a live
// session counts as a refresh and is published like any other transition.
func (p *Provider) SignIn(ctx context.Context, sid domain.SessionID, credential string) (domain.AdminIdentity, error) {
	if p.verifier == nil {
		p.incSignIn("error")
		return domain.AdminIdentity{}, &AuthError{Message: "Google sign-in is not configured"}
	}
	if credential == "" {
		p.incSignIn("error")
		return domain.AdminIdentity{}, &AuthError{Message: "Missing Google credential"}
	}
	claims, err := p.verifier.Verify(ctx, credential)
	if err != nil {
		p.incSignIn("error")
		p.log.Info().Err(err).Msg("google credential rejected")
		return domain.AdminIdentity{}, &AuthError{Message: "Google sign-in failed: " + err.Error(), Err: err}
	}
	if claims.Email == "" {
		p.incSignIn("error")
		return domain.AdminIdentity{}, &AuthError{Message: "Failed to obtain user information from Google"}
	}

	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	now := p.clk.Now()
	p.mu.Lock()
	expired := p.expireLocked(now)
	p.sessions[sid] = session{claims: claims, expiresAt: now.Add(p.ttl)}
	subs := p.snapshotLocked(sid)
	p.mu.Unlock()
	p.finish(expired)

	id := p.mapIdentity(claims)
	if id.IsAuthorized {
		p.incSignIn("authorized")
	} else {
		p.incSignIn("denied")
	}
	p.log.Info().Str("subject", string(id.Subject)).Bool("authorized", id.IsAuthorized).Msg("signed in")

	deliver(subs, &id)
	return id, nil
}

// SignOut ends the session. Signing out a session that is not signed in, or has already
// expired and been announced, does nothing.
func (p *Provider) SignOut(ctx context.Context, sid domain.SessionID) error {
	_ = ctx
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	expired := p.expireLocked(p.clk.Now())
	var out []ended
	if _, ok := p.sessions[sid]; ok {
		delete(p.sessions, sid)
		out = append(out, ended{sid: sid, subs: p.snapshotLocked(sid)})
	}
	p.mu.Unlock()

	p.finish(append(expired, out...))
	return nil
}

// Current returns the session's identity, freshly mapped against the allow-list, or nil.
func (p *Provider) Current(sid domain.SessionID) *domain.AdminIdentity {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	expired := p.expireLocked(p.clk.Now())
	s, ok := p.sessions[sid]
	p.mu.Unlock()
	p.finish(expired)

	if !ok {
		return nil
	}
	id := p.mapIdentity(s.claims)
	return &id
}

// ExpireSessions drops every session past its TTL and tells its listeners it signed out.
// It returns how many sessions ended.
func (p *Provider) ExpireSessions() int {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	expired := p.expireLocked(p.clk.Now())
	p.mu.Unlock()
	p.finish(expired)
	return len(expired)
}

// RunExpiry calls ExpireSessions every interval until ctx is done, so idle sessions are
// announced even when no request touches the provider.
func (p *Provider) RunExpiry(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := p.ExpireSessions(); n > 0 {
				p.log.Debug().Int("sessions", n).Msg("sessions expired")
			}
		}
	}
}

// Subscribe calls fn with the current identity now and after every later transition on sid.
// The returned function releases the listener; calling it more than once is harmless.
func (p *Provider) Subscribe(sid domain.SessionID, fn Listener) (unsubscribe func()) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	expired := p.expireLocked(p.clk.Now())
	p.nextID++
	key := p.nextID
	if p.listeners[sid] == nil {
		p.listeners[sid] = make(map[uint64]Listener)
	}
	s, ok := p.sessions[sid]
	p.listeners[sid][key] = fn
	p.mu.Unlock()
	p.finish(expired)

	if ok {
		id := p.mapIdentity(s.claims)
		fn(&id)
	} else {
		fn(nil)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.listeners[sid], key)
			if len(p.listeners[sid]) == 0 {
				delete(p.listeners, sid)
			}
		})
	}
}

// mapIdentity computes isAuthorized at call time; nothing is cached.
func (p *Provider) mapIdentity(c jwtverifier.Claims) domain.AdminIdentity {
	name := c.Name
	if name == "" {
		name = c.Email
	}
	picture := c.Picture
	if picture == "" {
		picture = domain.PlaceholderPicture
	}
	return domain.AdminIdentity{
		Subject:      domain.SubjectID(c.Subject),
		Email:        c.Email,
		Name:         name,
		Picture:      picture,
		IsAuthorized: c.EmailVerified && p.allow.IsAuthorizedAdmin(c.Email),
	}
}

// expireLocked removes sessions past their TTL. Listener snapshots are taken here so the
// caller can deliver after releasing mu.
func (p *Provider) expireLocked(now time.Time) []ended {
	var out []ended
	for sid, s := range p.sessions {
		if now.Before(s.expiresAt) {
			continue
		}
		delete(p.sessions, sid)
		out = append(out, ended{sid: sid, subs: p.snapshotLocked(sid)})
	}
	return out
}

// finish announces ended sessions. Callers hold notifyMu but not mu.
func (p *Provider) finish(done []ended) {
	if len(done) == 0 {
		return
	}
	p.mu.Lock()
	hooks := append(([]func(domain.SessionID))(nil), p.onEnd...)
	p.mu.Unlock()

	for _, e := range done {
		deliver(e.subs, nil)
		for _, fn := range hooks {
			fn(e.sid)
		}
	}
}

func (p *Provider) snapshotLocked(sid domain.SessionID) []Listener {
	out := make([]Listener, 0, len(p.listeners[sid]))
	for _, fn := range p.listeners[sid] {
		out = append(out, fn)
	}
	return out
}

func (p *Provider) incSignIn(result string) {
	if p.metrics != nil {
		p.metrics.IncSignIn(result)
	}
}

func deliver(subs []Listener, id *domain.AdminIdentity) {
	for _, fn := range subs {
		if id == nil {
			fn(nil)
			continue
		}
		cp := *id
		fn(&cp)
	}
}
