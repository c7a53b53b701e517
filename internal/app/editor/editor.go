// Package editor holds admin working copies of the band profile.
package editor

import (
	"context"
	"sync"

	"github.com/aashkara-band/site-api/internal/domain"
)

// ProfileStore is the slice of profile.Service the editor needs.
type ProfileStore interface {
	Resolve(ctx context.Context) domain.BandProfile
	Persist(ctx context.Context, p domain.BandProfile) error
}

type Metrics interface {
	IncProfileSave(result string)
}

// Editor owns one working copy. Every mutation replaces the working copy with a modified
// clone, so a profile returned earlier by Working never changes underneath its holder.
type Editor struct {
	store   ProfileStore
	metrics Metrics

	mu      sync.Mutex
	working domain.BandProfile
	dirty   bool
	// gen counts working-copy replacements; Save only clears dirty if it is unchanged.
	gen uint64
}

// New loads a working copy from store.
func New(ctx context.Context, store ProfileStore, m Metrics) *Editor {
	return &Editor{store: store, metrics: m, working: store.Resolve(ctx)}
}

// Working returns a copy of the current working profile.
func (e *Editor) Working() domain.BandProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working.Clone()
}

// Dirty reports whether there are edits since the last load or save.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// UpdateField sets name, tagline or about.
func (e *Editor) UpdateField(field, value string) error {
	return e.mutate(func(p *domain.BandProfile) error {
		switch field {
		case "name":
			p.Name = value
		case "tagline":
			p.Tagline = value
		case "about":
			p.About = value
		default:
			return unknownField("profile", field)
		}
		return nil
	})
}

// UpdateContact sets email, phone, alternatePhone or address.
func (e *Editor) UpdateContact(field, value string) error {
	return e.mutate(func(p *domain.BandProfile) error {
		switch field {
		case "email":
			p.Contact.Email = value
		case "phone":
			p.Contact.Phone = value
		case "alternatePhone":
			p.Contact.AlternatePhone = value
		case "address":
			p.Contact.Address = value
		default:
			return unknownField("contact", field)
		}
		return nil
	})
}

// UpdateSocial sets instagram, youtube, facebook or spotify.
func (e *Editor) UpdateSocial(field, value string) error {
	return e.mutate(func(p *domain.BandProfile) error {
		switch field {
		case "instagram":
			p.Social.Instagram = value
		case "youtube":
			p.Social.YouTube = value
		case "facebook":
			p.Social.Facebook = value
		case "spotify":
			p.Social.Spotify = value
		default:
			return unknownField("social", field)
		}
		return nil
	})
}

func (e *Editor) UpdateMember(i int, field, value string) error {
	return e.mutate(func(p *domain.BandProfile) error {
		if i < 0 || i >= len(p.Members) {
			return indexOutOfRange("members", i, len(p.Members))
		}
		m := &p.Members[i]
		switch field {
		case "name":
			m.Name = value
		case "role":
			m.Role = value
		case "bio":
			m.Bio = value
		default:
			return unknownField("member", field)
		}
		return nil
	})
}

// AddMember appends m and returns its index.
func (e *Editor) AddMember(m domain.Member) int {
	var idx int
	_ = e.mutate(func(p *domain.BandProfile) error {
		p.Members = append(p.Members, m)
		idx = len(p.Members) - 1
		return nil
	})
	return idx
}

func (e *Editor) RemoveMember(i int) error {
	return e.mutate(func(p *domain.BandProfile) error {
		if i < 0 || i >= len(p.Members) {
			return indexOutOfRange("members", i, len(p.Members))
		}
		p.Members = removeAt(p.Members, i)
		return nil
	})
}

func (e *Editor) UpdateProject(i int, field, value string) error {
	return e.mutate(func(p *domain.BandProfile) error {
		if i < 0 || i >= len(p.Projects) {
			return indexOutOfRange("projects", i, len(p.Projects))
		}
		pr := &p.Projects[i]
		switch field {
		case "title":
			pr.Title = value
		case "description":
			pr.Description = value
		case "youtubeId":
			pr.YouTubeID = value
		default:
			return unknownField("project", field)
		}
		return nil
	})
}

// AddProject appends pr and returns its index.
func (e *Editor) AddProject(pr domain.Project) int {
	var idx int
	_ = e.mutate(func(p *domain.BandProfile) error {
		p.Projects = append(p.Projects, pr)
		idx = len(p.Projects) - 1
		return nil
	})
	return idx
}

func (e *Editor) RemoveProject(i int) error {
	return e.mutate(func(p *domain.BandProfile) error {
		if i < 0 || i >= len(p.Projects) {
			return indexOutOfRange("projects", i, len(p.Projects))
		}
		p.Projects = removeAt(p.Projects, i)
		return nil
	})
}

// Save persists the whole working copy. Fields are not validated; empty strings are
// stored as-is.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	snapshot := e.working.Clone()
	gen := e.gen
	e.mu.Unlock()

	if err := e.store.Persist(ctx, snapshot); err != nil {
		e.incSave("failed")
		return err
	}
	e.incSave("saved")

	e.mu.Lock()
	if e.gen == gen {
		e.dirty = false
	}
	e.mu.Unlock()
	return nil
}

// Reload discards unsaved edits and re-reads the resolved profile.
func (e *Editor) Reload(ctx context.Context) domain.BandProfile {
	p := e.store.Resolve(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.working = p
	e.dirty = false
	e.gen++
	return e.working.Clone()
}

// mutate applies fn to a clone and swaps it in only when fn succeeds.
func (e *Editor) mutate(fn func(p *domain.BandProfile) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.working.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	e.working = next
	e.dirty = true
	e.gen++
	return nil
}

func (e *Editor) incSave(result string) {
	if e.metrics != nil {
		e.metrics.IncProfileSave(result)
	}
}

// removeAt returns a new slice without element i.
func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
