// Package admin decides who may use the content editor.
package admin

import (
	"fmt"
	"sync"

	"github.com/aashkara-band/site-api/internal/domain"
)

// Authorizer checks emails against the configured allow-list.
//
// The list counts as configured only when it is non-empty and contains no blank entry;
// a blank (for example from a trailing comma) disables admin access entirely.
type Authorizer struct {
	mu         sync.RWMutex
	raw        []string
	allowed    map[string]struct{}
	configured bool
}

func NewAuthorizer(emails []string) *Authorizer {
	a := &Authorizer{}
	a.Replace(emails)
	return a
}

// Replace swaps the allow-list. Identities mapped earlier keep their old verdict.
func (a *Authorizer) Replace(emails []string) {
	allowed := make(map[string]struct{}, len(emails))
	configured := len(emails) > 0
	for _, e := range emails {
		if e == "" {
			configured = false
			continue
		}
		allowed[domain.NormalizeEmail(e)] = struct{}{}
	}

	a.mu.Lock()
	a.raw = append([]string(nil), emails...)
	a.allowed = allowed
	a.configured = configured
	a.mu.Unlock()
}

// Configured reports whether the allow-list can authorize anyone.
func (a *Authorizer) Configured() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.configured
}

// IsAuthorizedAdmin reports whether email is on a configured allow-list, ignoring case.
func (a *Authorizer) IsAuthorizedAdmin(email string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.configured {
		return false
	}
	_, ok := a.allowed[domain.NormalizeEmail(email)]
	return ok
}

// AuthStatus is diagnostic only; nothing gates access on it.
type AuthStatus struct {
	IdentityProviderReady bool           `json:"identityProviderReady"`
	AdminEmailsConfigured bool           `json:"adminEmails"`
	AuthorizedCount       int            `json:"authorizedCount"`
	Messages              StatusMessages `json:"config"`
}

type StatusMessages struct {
	IdentityProvider string `json:"identityProvider"`
	AuthorizedEmails string `json:"authorizedEmails"`
}

func (a *Authorizer) Status(providerReady bool) AuthStatus {
	a.mu.RLock()
	n := len(a.raw)
	configured := a.configured
	a.mu.RUnlock()

	st := AuthStatus{
		IdentityProviderReady: providerReady,
		AdminEmailsConfigured: configured,
		AuthorizedCount:       n,
		Messages: StatusMessages{
			IdentityProvider: "✗ Google sign-in not configured",
			AuthorizedEmails: "✗ No authorised emails",
		},
	}
	if providerReady {
		st.Messages.IdentityProvider = "✓ Google sign-in ready"
	}
	if n > 0 {
		st.Messages.AuthorizedEmails = fmt.Sprintf("✓ %d authorised", n)
	}
	return st
}
