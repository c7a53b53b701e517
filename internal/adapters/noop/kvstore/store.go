// Package kvstore provides a store that never touches storage. It backs the profile in
// contexts where there is nowhere to persist to, so reads always see defaults.
package kvstore

import "context"

type Store struct{}

func NewStore() Store { return Store{} }

func (Store) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (Store) Put(context.Context, string, string) error { return nil }
