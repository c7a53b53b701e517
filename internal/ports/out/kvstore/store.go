package kvstore

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("kv store unavailable")

// Store persists small string values under string keys.
//
// The site keeps exactly one record in it: the JSON-encoded profile override. A missing
// key is reported with ok=false, never as an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
}
