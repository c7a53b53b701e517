// Package config loads the service configuration once at startup.
//
// Nothing in the application reads the environment after Load returns; the resulting
// Config is passed to the components that need it.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeGoogle   = "google"
	AuthModeDisabled = "disabled"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageNone     = "none"

	DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"
	DefaultStorageKey      = "bandConfig"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Band    BandConfig
	EmailJS EmailJSConfig
	Admin   AdminConfig
	Auth    AuthConfig
	Session SessionConfig
	Storage StorageConfig
	Sentry  SentryConfig
	CORS    CORSConfig
}

type ServerConfig struct {
	Port              int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// BandConfig carries optional identity overrides; empty fields fall back to built-in defaults.
type BandConfig struct {
	Name           string
	Tagline        string
	Email          string
	Phone          string
	AlternatePhone string
	Address        string
	Instagram      string
	YouTube        string
	Facebook       string
	Spotify        string
}

// EmailJSConfig holds the transactional email credentials. They are only ever checked
// for presence.
type EmailJSConfig struct {
	PublicKey           string
	ServiceID           string
	InquiryTemplateID   string
	AutoReplyTemplateID string

	Endpoint   string
	Timeout    time.Duration
	DateLayout string
}

type AdminConfig struct {
	// AuthorizedEmails is the raw comma-split allow-list. Entries are trimmed but blanks
	// are kept, so a misconfigured list stays detectable.
	AuthorizedEmails []string
}

type AuthConfig struct {
	Mode   string
	Google JWTConfig
}

type SessionConfig struct {
	Secret       []byte
	Ephemeral    bool // Secret was generated at startup
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

type StorageConfig struct {
	Backend     string
	DatabaseURL string
	Key         string
}

type SentryConfig struct {
	DSN         string
	Environment string
}

type CORSConfig struct {
	AllowedOrigin string
}

// Load reads .env.local and .env (when present) and then the process environment.
func Load() (*Config, error) {
	// Missing files are fine; real deployments set the environment directly.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := &Config{}

	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	cfg.loadLogging()
	cfg.loadBand()
	if err := cfg.loadEmailJS(); err != nil {
		return nil, fmt.Errorf("load emailjs config: %w", err)
	}
	cfg.loadAdmin()
	if err := cfg.loadAuth(); err != nil {
		return nil, fmt.Errorf("load auth config: %w", err)
	}
	if err := cfg.loadSession(); err != nil {
		return nil, fmt.Errorf("load session config: %w", err)
	}
	cfg.loadStorage()
	cfg.loadSentry()
	cfg.CORS.AllowedOrigin = strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGIN"))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port

	if c.Server.ReadHeaderTimeout, err = getEnvDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second); err != nil {
		return err
	}
	if c.Server.ShutdownTimeout, err = getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadLogging() {
	c.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	c.Logging.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
}

func (c *Config) loadBand() {
	c.Band = BandConfig{
		Name:           strings.TrimSpace(os.Getenv("BAND_NAME")),
		Tagline:        strings.TrimSpace(os.Getenv("BAND_TAGLINE")),
		Email:          strings.TrimSpace(os.Getenv("BAND_EMAIL")),
		Phone:          strings.TrimSpace(os.Getenv("BAND_PHONE")),
		AlternatePhone: strings.TrimSpace(os.Getenv("BAND_ALTERNATE_PHONE")),
		Address:        strings.TrimSpace(os.Getenv("BAND_ADDRESS")),
		Instagram:      strings.TrimSpace(os.Getenv("BAND_INSTAGRAM")),
		YouTube:        strings.TrimSpace(os.Getenv("BAND_YOUTUBE")),
		Facebook:       strings.TrimSpace(os.Getenv("BAND_FACEBOOK")),
		Spotify:        strings.TrimSpace(os.Getenv("BAND_SPOTIFY")),
	}
}

func (c *Config) loadEmailJS() error {
	c.EmailJS = EmailJSConfig{
		PublicKey:           strings.TrimSpace(os.Getenv("EMAILJS_PUBLIC_KEY")),
		ServiceID:           strings.TrimSpace(os.Getenv("EMAILJS_SERVICE_ID")),
		InquiryTemplateID:   strings.TrimSpace(os.Getenv("EMAILJS_INQUIRY_TEMPLATE_ID")),
		AutoReplyTemplateID: strings.TrimSpace(os.Getenv("EMAILJS_AUTOREPLY_TEMPLATE_ID")),
		Endpoint:            getEnvOrDefault("EMAILJS_ENDPOINT", DefaultEmailJSEndpoint),
		DateLayout:          getEnvOrDefault("EMAILJS_DATE_LAYOUT", "1/2/2006"),
	}
	var err error
	c.EmailJS.Timeout, err = getEnvDuration("EMAILJS_TIMEOUT", 10*time.Second)
	return err
}

func (c *Config) loadAdmin() {
	raw, ok := os.LookupEnv("AUTHORIZED_ADMIN_EMAILS")
	if !ok {
		c.Admin.AuthorizedEmails = nil
		return
	}
	c.Admin.AuthorizedEmails = splitList(raw, true)
}

// ReloadAdminEmails re-reads AUTHORIZED_ADMIN_EMAILS for a running process. The env files
// are consulted first (.env.local wins over .env) because the process environment itself
// cannot change after start. ok is false when the variable is set nowhere.
func ReloadAdminEmails() (emails []string, ok bool) {
	for _, f := range []string{".env.local", ".env"} {
		vals, err := godotenv.Read(f)
		if err != nil {
			continue
		}
		if raw, found := vals["AUTHORIZED_ADMIN_EMAILS"]; found {
			return splitList(raw, true), true
		}
	}
	raw, found := os.LookupEnv("AUTHORIZED_ADMIN_EMAILS")
	if !found {
		return nil, false
	}
	return splitList(raw, true), true
}

func (c *Config) loadAuth() error {
	c.Auth.Mode = strings.ToLower(getEnvOrDefault("AUTH_MODE", AuthModeGoogle))
	g, err := LoadJWTConfigFromEnv()
	if err != nil {
		return err
	}
	c.Auth.Google = g
	return nil
}

func (c *Config) loadSession() error {
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		secret = hex.EncodeToString(b)
		c.Session.Ephemeral = true
	}
	c.Session.Secret = []byte(secret)
	c.Session.CookieName = getEnvOrDefault("SESSION_COOKIE_NAME", "band_admin_session")

	var err error
	if c.Session.TTL, err = getEnvDuration("SESSION_TTL", 12*time.Hour); err != nil {
		return err
	}
	secure, err := strconv.ParseBool(getEnvOrDefault("SESSION_COOKIE_SECURE", "true"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_COOKIE_SECURE: %w", err)
	}
	c.Session.CookieSecure = secure
	return nil
}

func (c *Config) loadStorage() {
	c.Storage.Backend = strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageMemory))
	c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	c.Storage.Key = getEnvOrDefault("STORAGE_KEY", DefaultStorageKey)
}

func (c *Config) loadSentry() {
	c.Sentry.DSN = strings.TrimSpace(os.Getenv("SENTRY_DSN"))
	c.Sentry.Environment = getEnvOrDefault("SENTRY_ENVIRONMENT", "development")
}

// Validate checks that all required configuration is present and valid.
//
// Missing EmailJS credentials or an empty allow-list are not errors: those features
// report themselves as unconfigured instead.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	switch c.Auth.Mode {
	case AuthModeGoogle, AuthModeDisabled:
	default:
		problems = append(problems, "AUTH_MODE must be one of: google, disabled")
	}

	if !c.Session.Ephemeral && len(c.Session.Secret) < 32 {
		problems = append(problems, "SESSION_SECRET must be at least 32 characters")
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}

	switch c.Storage.Backend {
	case StorageMemory, StorageNone:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		problems = append(problems, "STORAGE_BACKEND must be one of: memory, postgres, none")
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		problems = append(problems, "STORAGE_KEY must not be blank")
	}

	if c.EmailJS.Endpoint == "" {
		problems = append(problems, "EMAILJS_ENDPOINT must not be blank")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 10s): %w", key, err)
	}
	return d, nil
}

// splitList splits a comma-separated value and trims each entry. Blank entries are
// kept only when keepBlank is set.
func splitList(raw string, keepBlank bool) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" && !keepBlank {
			continue
		}
		out = append(out, p)
	}
	return out
}
