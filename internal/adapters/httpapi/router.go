package httpapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type RouterOptions struct {
	Logger zerolog.Logger

	// Session cookie settings.
	Sessions   *SessionCodec
	CookieName string
	// CookieSecure should only be false for plain-http local development.
	CookieSecure bool

	// AllowedOrigin is the one browser origin allowed to call the API cross-origin.
	AllowedOrigin string
}

// NewRouter constructs the API HTTP router.
//
// Public endpoints live under /api, sign-in under /auth, and the content editor under
// /admin, which requires an allow-listed identity.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	cookies := sessionCookies{codec: opts.Sessions, name: opts.CookieName, secure: opts.CookieSecure}
	if cookies.name == "" {
		cookies.name = "band_admin_session"
	}
	s.originPatterns = originPatterns(opts.AllowedOrigin)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogging(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(opts.AllowedOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", s.getProfile)
		r.Post("/inquiries", s.postInquiry)
		r.Post("/whatsapp-link", s.postWhatsAppLink)
		r.Get("/status", s.getStatus)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(cookies.ensureSession)
		r.Post("/google", s.signIn(cookies))
		r.Post("/signout", s.signOut(cookies))
		r.Get("/me", s.me)
		r.Get("/events", s.events)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(cookies.loadSession)
		r.Use(requireAdmin(s.identity))

		r.Get("/editor", s.getEditor)
		r.Patch("/editor", s.patchEditor)
		r.Post("/editor/reload", s.reloadEditor)
		r.Post("/editor/save", s.saveEditor)

		r.Post("/editor/members", s.addMember)
		r.Patch("/editor/members/{index}", s.patchMember)
		r.Delete("/editor/members/{index}", s.deleteMember)

		r.Post("/editor/projects", s.addProject)
		r.Patch("/editor/projects/{index}", s.patchProject)
		r.Delete("/editor/projects/{index}", s.deleteProject)
	})

	return r
}

// originPatterns turns the allowed origin into the host pattern websocket.Accept expects.
func originPatterns(origin string) []string {
	if origin == "" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
