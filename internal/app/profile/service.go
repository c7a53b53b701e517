// Package profile resolves the band profile: built-in defaults, replaced wholesale by the
// persisted override when one exists.
package profile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/domain"
	"github.com/aashkara-band/site-api/internal/ports/out/kvstore"
)

type Service struct {
	store    kvstore.Store
	key      string
	defaults domain.BandProfile
	log      zerolog.Logger
}

func NewService(store kvstore.Store, key string, defaults domain.BandProfile, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		key:      key,
		defaults: defaults.Clone(),
		log:      log.With().Str("component", "profile").Logger(),
	}
}

// Defaults returns a copy of the environment-derived profile.
func (s *Service) Defaults() domain.BandProfile {
	return s.defaults.Clone()
}

// Resolve returns the persisted override when present and readable, else the defaults.
// Storage and decode failures are logged and never returned.
func (s *Service) Resolve(ctx context.Context) domain.BandProfile {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("read profile override failed, using defaults")
		return s.Defaults()
	}
	if !ok || raw == "" {
		return s.Defaults()
	}

	p, err := decodeRecord(raw, s.defaults)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("ignoring unreadable profile override")
		return s.Defaults()
	}
	s.fillRequired(&p)
	return p
}

// Persist overwrites the stored override with p. There is no merge and no version check.
func (s *Service) Persist(ctx context.Context, p domain.BandProfile) error {
	raw, err := encodeRecord(p)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

// fillRequired restores required scalars that an override left empty.
func (s *Service) fillRequired(p *domain.BandProfile) {
	for _, field := range p.MissingRequired() {
		switch field {
		case "name":
			p.Name = s.defaults.Name
		case "contact.email":
			p.Contact.Email = s.defaults.Contact.Email
		case "contact.phone":
			p.Contact.Phone = s.defaults.Contact.Phone
		}
	}
}
