package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by backends for keys with no value.
var ErrNotFound = errors.New("tokenstore: key not found")

// Backend is one durable key-value storage path. The store writes
// through to two of them so that losing one does not lose the session.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}
