package contracttest

import (
	"context"
	"testing"

	kvport "github.com/aashkara-band/site-api/internal/ports/out/kvstore"
)

type CleanupFunc = func()

type KVStoreFactory func(t *testing.T) (kvport.Store, CleanupFunc)

// RunKVStore checks the behaviour every kvstore.Store adapter must share.
func RunKVStore(t *testing.T, newStore KVStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	const key = "contract-bandConfig"

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get on missing key: ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	if err := store.Put(ctx, key, `{"name":"A"}`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != `{"name":"A"}` {
		t.Fatalf("Get()=%q ok=%v", got, ok)
	}

	// Overwrite semantics.
	if err := store.Put(ctx, key, `{"name":"B"}`); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, key)
	if err != nil || !ok || got != `{"name":"B"}` {
		t.Fatalf("expected overwritten value, got ok=%v err=%v value=%q", ok, err, got)
	}

	// Idempotent: writing the same value twice leaves the same state.
	if err := store.Put(ctx, key, `{"name":"B"}`); err != nil {
		t.Fatalf("Put same value: %v", err)
	}
	got, _, _ = store.Get(ctx, key)
	if got != `{"name":"B"}` {
		t.Fatalf("value after repeated Put=%q", got)
	}

	// Keys are independent.
	if _, ok, _ := store.Get(ctx, key+"-other"); ok {
		t.Fatalf("unexpected value under a different key")
	}

	// Empty values are stored, not treated as missing.
	if err := store.Put(ctx, key+"-empty", ""); err != nil {
		t.Fatalf("Put empty: %v", err)
	}
	if v, ok, err := store.Get(ctx, key+"-empty"); err != nil || !ok || v != "" {
		t.Fatalf("empty value: v=%q ok=%v err=%v", v, ok, err)
	}
}
