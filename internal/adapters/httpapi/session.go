package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aashkara-band/site-api/internal/domain"
	clockport "github.com/aashkara-band/site-api/internal/ports/out/clock"
)

const sessionIssuer = "band-site-api"

var errInvalidSession = errors.New("invalid session")

// SessionCodec signs and verifies the session cookie. The cookie carries only the session
// id (jti) and its expiry; identity lives server-side in the identity provider.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	clk    clockport.Clock
}

func NewSessionCodec(secret []byte, ttl time.Duration, clk clockport.Clock) *SessionCodec {
	return &SessionCodec{secret: secret, ttl: ttl, clk: clk}
}

// Issue returns a signed token for sid and the time it stops being accepted.
func (c *SessionCodec) Issue(sid domain.SessionID) (string, time.Time, error) {
	now := c.clk.Now()
	exp := now.Add(c.ttl)
	claims := jwt.RegisteredClaims{
		ID:        string(sid),
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies raw and returns the session id it carries.
func (c *SessionCodec) Parse(raw string) (domain.SessionID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clk.Now),
	)
	if err != nil {
		return "", errInvalidSession
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", errInvalidSession
	}
	return domain.SessionID(claims.ID), nil
}

// sessionCookies reads and writes the session cookie around a SessionCodec.
type sessionCookies struct {
	codec  *SessionCodec
	name   string
	secure bool
}

func (s sessionCookies) read(r *http.Request) (domain.SessionID, bool) {
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return "", false
	}
	sid, err := s.codec.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return sid, true
}

func (s sessionCookies) write(w http.ResponseWriter, sid domain.SessionID) error {
	token, exp, err := s.codec.Issue(sid)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s sessionCookies) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// loadSession puts the cookie's session id, when valid, into the request context.
func (s sessionCookies) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sid, ok := s.read(r); ok {
			r = r.WithContext(WithSession(r.Context(), sid))
		}
		next.ServeHTTP(w, r)
	})
}

// ensureSession is loadSession that also starts a new session when the request has none.
func (s sessionCookies) ensureSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := s.read(r)
		if !ok {
			sid = domain.SessionID(uuid.NewString())
			if err := s.write(w, sid); err != nil {
				writeAppError(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sid)))
	})
}
