package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by Set when the write would push the store
// past its configured capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is the local key-value primitive everything durable sits on.
// Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
