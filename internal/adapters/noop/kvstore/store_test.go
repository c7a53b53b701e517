package kvstore

import (
	"context"
	"testing"
)

func TestStore_NeverRetains(t *testing.T) {
	t.Parallel()

	s := NewStore()
	if err := s.Put(context.Background(), "bandConfig", `{"name":"x"}`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, err := s.Get(context.Background(), "bandConfig"); ok || err != nil {
		t.Fatalf("Get() ok=%v err=%v, want nothing stored", ok, err)
	}
}
