package sentry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

func TestReporter_DisabledWithoutDSN(t *testing.T) {
	t.Parallel()

	r, err := New(Options{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Enabled() {
		t.Fatalf("expected disabled reporter")
	}
	r.Report(context.Background(), errors.New("boom"), nil)
	if !r.Flush(time.Millisecond) {
		t.Fatalf("disabled flush should succeed")
	}
}

func TestReporter_ReportCarriesTags(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	r, err := New(Options{
		DSN: "https://public@example.invalid/1",
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
			return nil // drop before transport
		},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r.Report(context.Background(), errors.New("auto-reply failed"), map[string]string{"stage": "autoreply"})

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("events=%d, want 1", len(events))
	}
	if events[0].Tags["stage"] != "autoreply" {
		t.Fatalf("tags=%v", events[0].Tags)
	}
	if events[0].Environment != "development" {
		t.Fatalf("environment=%q", events[0].Environment)
	}
}

func TestNew_InvalidDSN(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{DSN: "::not a dsn"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for invalid DSN")
	}
}
