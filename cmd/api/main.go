package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/adapters/emailjs"
	"github.com/aashkara-band/site-api/internal/adapters/httpapi"
	memkv "github.com/aashkara-band/site-api/internal/adapters/memory/kvstore"
	noopkv "github.com/aashkara-band/site-api/internal/adapters/noop/kvstore"
	postgres "github.com/aashkara-band/site-api/internal/adapters/postgres"
	"github.com/aashkara-band/site-api/internal/adapters/postgres/migrations"
	pgkv "github.com/aashkara-band/site-api/internal/adapters/postgres/kvstore"
	sentryreporter "github.com/aashkara-band/site-api/internal/adapters/sentry"
	"github.com/aashkara-band/site-api/internal/app/admin"
	"github.com/aashkara-band/site-api/internal/app/editor"
	"github.com/aashkara-band/site-api/internal/app/identity"
	"github.com/aashkara-band/site-api/internal/app/inquiry"
	"github.com/aashkara-band/site-api/internal/app/profile"
	"github.com/aashkara-band/site-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/aashkara-band/site-api/internal/platform/clock"
	"github.com/aashkara-band/site-api/internal/platform/config"
	"github.com/aashkara-band/site-api/internal/platform/ids"
	"github.com/aashkara-band/site-api/internal/platform/logging"
	"github.com/aashkara-band/site-api/internal/platform/metrics"
	kvport "github.com/aashkara-band/site-api/internal/ports/out/kvstore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := platformclock.NewSystemClock()
	m := metrics.New()

	rep, err := sentryreporter.New(sentryreporter.Options{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     version,
	}, log)
	if err != nil {
		return err
	}
	defer rep.Flush(cfg.Server.ShutdownTimeout)

	store, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	profiles := profile.NewService(store, cfg.Storage.Key, profile.DefaultProfile(profile.Overrides{
		Name:           cfg.Band.Name,
		Tagline:        cfg.Band.Tagline,
		Email:          cfg.Band.Email,
		Phone:          cfg.Band.Phone,
		AlternatePhone: cfg.Band.AlternatePhone,
		Address:        cfg.Band.Address,
		Instagram:      cfg.Band.Instagram,
		YouTube:        cfg.Band.YouTube,
		Facebook:       cfg.Band.Facebook,
		Spotify:        cfg.Band.Spotify,
	}), log)

	authorizer := admin.NewAuthorizer(cfg.Admin.AuthorizedEmails)
	if !authorizer.Configured() {
		log.Warn().Msg("AUTHORIZED_ADMIN_EMAILS is empty or has a blank entry; admin access is disabled")
	}

	// Left nil when sign-in is off; the provider then reports itself as not ready.
	var verifier identity.Verifier
	switch {
	case cfg.Auth.Mode == config.AuthModeDisabled:
		log.Info().Msg("AUTH_MODE=disabled, Google sign-in is off")
	case !cfg.Auth.Google.Enabled():
		log.Warn().Msg("GOOGLE_CLIENT_ID not set, Google sign-in is unavailable")
	default:
		verifier = jwtverifier.New(cfg.Auth.Google)
	}
	provider := identity.NewProvider(verifier, authorizer, clk, cfg.Session.TTL, m, log)
	editors := editor.NewSessions(profiles, m)
	provider.OnSessionEnd(editors.Drop)

	dispatcher := inquiry.NewDispatcher(
		emailjs.New(cfg.EmailJS.Endpoint, cfg.EmailJS.Timeout),
		inquiry.Credentials{
			PublicKey:           cfg.EmailJS.PublicKey,
			ServiceID:           cfg.EmailJS.ServiceID,
			InquiryTemplateID:   cfg.EmailJS.InquiryTemplateID,
			AutoReplyTemplateID: cfg.EmailJS.AutoReplyTemplateID,
		},
		clk, rep, m, ids.NewULID, log,
	)
	dispatcher.DateLayout = cfg.EmailJS.DateLayout
	if st := dispatcher.DispatchStatus(); !st.IsConfigured {
		log.Warn().Interface("fields", st.Fields).Msg("EmailJS credentials incomplete; email inquiries are disabled")
	}

	if cfg.Session.Ephemeral {
		log.Warn().Msg("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	}

	api := httpapi.NewServer(httpapi.Services{
		Profile:    profiles,
		Authorizer: authorizer,
		Identity:   provider,
		Inquiries:  dispatcher,
		Editors:    editors,
		Metrics:    m,
		Ready: func(ctx context.Context) error {
			_, _, err := store.Get(ctx, cfg.Storage.Key)
			return err
		},
	})
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Logger:        log,
		Sessions:      httpapi.NewSessionCodec(cfg.Session.Secret, cfg.Session.TTL, clk),
		CookieName:    cfg.Session.CookieName,
		CookieSecure:  cfg.Session.CookieSecure,
		AllowedOrigin: cfg.CORS.AllowedOrigin,
	})

	go reloadAllowListOnHangup(ctx, authorizer, log)
	go provider.RunExpiry(ctx, time.Minute)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("storage", cfg.Storage.Backend).Str("version", version).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore picks the override storage backend. The returned cleanup is always safe to call.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (kvport.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("invalid postgres config: %w", err)
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return pgkv.NewStore(pool), pool.Close, nil
	case config.StorageNone:
		log.Info().Msg("STORAGE_BACKEND=none; profile edits will not be persisted")
		return noopkv.NewStore(), func() {}, nil
	default:
		return memkv.NewStore(), func() {}, nil
	}
}

// reloadAllowListOnHangup swaps the admin allow-list on SIGHUP. Identities already
// mapped keep their verdict; the next check uses the new list.
func reloadAllowListOnHangup(ctx context.Context, authorizer *admin.Authorizer, log zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			emails, ok := config.ReloadAdminEmails()
			if !ok {
				log.Warn().Msg("SIGHUP: AUTHORIZED_ADMIN_EMAILS not found, keeping the current allow-list")
				continue
			}
			authorizer.Replace(emails)
			log.Info().Int("entries", len(emails)).Bool("configured", authorizer.Configured()).Msg("admin allow-list reloaded")
		}
	}
}
