package editor

import (
	"context"
	"sync"

	"github.com/aashkara-band/site-api/internal/domain"
)

// Sessions keeps one Editor per signed-in admin session.
type Sessions struct {
	store   ProfileStore
	metrics Metrics

	mu      sync.Mutex
	editors map[domain.SessionID]*Editor
}

func NewSessions(store ProfileStore, m Metrics) *Sessions {
	return &Sessions{store: store, metrics: m, editors: make(map[domain.SessionID]*Editor)}
}

// Get returns the session's editor, loading a fresh working copy on first use.
func (s *Sessions) Get(ctx context.Context, sid domain.SessionID) *Editor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.editors[sid]; ok {
		return e
	}
	e := New(ctx, s.store, s.metrics)
	s.editors[sid] = e
	return e
}

// Drop forgets the session's editor and its unsaved edits.
func (s *Sessions) Drop(sid domain.SessionID) {
	s.mu.Lock()
	delete(s.editors, sid)
	s.mu.Unlock()
}
