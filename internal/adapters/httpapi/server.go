package httpapi

import (
	"context"
	"time"

	"github.com/aashkara-band/site-api/internal/app/admin"
	"github.com/aashkara-band/site-api/internal/app/editor"
	"github.com/aashkara-band/site-api/internal/app/identity"
	"github.com/aashkara-band/site-api/internal/app/inquiry"
	"github.com/aashkara-band/site-api/internal/app/profile"
	"github.com/aashkara-band/site-api/internal/platform/metrics"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// Services are the application components the HTTP layer exposes.
type Services struct {
	Profile    *profile.Service
	Authorizer *admin.Authorizer
	Identity   *identity.Provider
	Inquiries  *inquiry.Dispatcher
	Editors    *editor.Sessions
	Metrics    *metrics.Metrics

	// Ready probes backing storage for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Server implements the HTTP handlers on top of Services.
type Server struct {
	profile    *profile.Service
	authorizer *admin.Authorizer
	identity   *identity.Provider
	inquiries  *inquiry.Dispatcher
	editors    *editor.Sessions
	metrics    *metrics.Metrics
	ready      func(ctx context.Context) error

	// websocket settings for /auth/events
	originPatterns []string
	writeTimeout   time.Duration
}

func NewServer(svc Services) *Server {
	return &Server{
		profile:      svc.Profile,
		authorizer:   svc.Authorizer,
		identity:     svc.Identity,
		inquiries:    svc.Inquiries,
		editors:      svc.Editors,
		metrics:      svc.Metrics,
		ready:        svc.Ready,
		writeTimeout: 5 * time.Second,
	}
}
