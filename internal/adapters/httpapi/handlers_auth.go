package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/domain"
)

type signInRequest struct {
	Credential string `json:"credential"`
}

// sessionState is the body of /auth/me and of every /auth/events message. Identity is
// null when the session is signed out.
type sessionState struct {
	Identity *domain.AdminIdentity `json:"identity"`
}

func (s *Server) signIn(cookies sessionCookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}
		sid, _ := SessionFromContext(r.Context())

		id, err := s.identity.SignIn(r.Context(), sid, strings.TrimSpace(req.Credential))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		// Re-issue so the cookie lives as long as the fresh server-side session.
		if err := cookies.write(w, sid); err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionState{Identity: &id})
	}
}

func (s *Server) signOut(cookies sessionCookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, _ := SessionFromContext(r.Context())
		if err := s.identity.SignOut(r.Context(), sid); err != nil {
			writeAppError(w, r, err)
			return
		}
		cookies.clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	sid, _ := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionState{Identity: s.identity.Current(sid)})
}

// events streams the session's identity over a websocket: the current state first, then
// every sign-in, sign-out and expiry. Only the latest undelivered state is kept for a slow reader.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	sid, _ := SessionFromContext(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		log.Info().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	// Clients never send anything; CloseRead handles control frames and cancels ctx when
	// the peer goes away.
	ctx := conn.CloseRead(r.Context())

	updates := make(chan *domain.AdminIdentity, 1)
	unsubscribe := s.identity.Subscribe(sid, func(id *domain.AdminIdentity) {
		for {
			select {
			case updates <- id:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case id := <-updates:
			wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			err := wsjson.Write(wctx, conn, sessionState{Identity: id})
			cancel()
			if err != nil {
				log.Debug().Err(err).Int("close_status", int(websocket.CloseStatus(err))).Msg("session event write failed")
				return
			}
		}
	}
}
