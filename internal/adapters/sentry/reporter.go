// Package sentry reports swallowed failures to Sentry. With no DSN configured the
// reporter is disabled and every call is a no-op.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

type Options struct {
	DSN         string
	Environment string
	Release     string

	// BeforeSend lets tests observe events without a network transport.
	BeforeSend func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event
}

type Reporter struct {
	hub *sentry.Hub
	log zerolog.Logger
}

// New builds a reporter with its own client and hub, leaving the sentry globals alone.
func New(opts Options, log zerolog.Logger) (*Reporter, error) {
	if opts.DSN == "" {
		log.Info().Msg("SENTRY_DSN not set, error reporting disabled")
		return &Reporter{log: log}, nil
	}
	env := opts.Environment
	if env == "" {
		env = "development"
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: env,
		Release:     opts.Release,
		BeforeSend:  opts.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry client: %w", err)
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope()), log: log}, nil
}

func (r *Reporter) Enabled() bool { return r != nil && r.hub != nil }

// Report captures err with the given tags.
func (r *Reporter) Report(ctx context.Context, err error, tags map[string]string) {
	_ = ctx
	if !r.Enabled() || err == nil {
		return
	}
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if id := hub.CaptureException(err); id == nil {
			r.log.Debug().Err(err).Msg("sentry dropped event")
		}
	})
}

// Flush waits for buffered events. It reports true when disabled.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(timeout)
}
