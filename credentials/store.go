package credentials

import (
	"context"

	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
)

// ErrKeyNotFound is returned by Store.Get when the key has no value.
var ErrKeyNotFound = apperrors.ErrKeyNotFound

// Store is the persisted key-value store that holds session credentials and the
// cached profile. Implementations must be safe for concurrent use; Remove of an
// absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// BatchStore is implemented by stores that can write or delete several keys in a
// single atomic operation. SaveLogin and Clear use it when available.
type BatchStore interface {
	Store
	SetAll(ctx context.Context, values map[string]string) error
	RemoveAll(ctx context.Context, keys ...string) error
	// Replace sets values and removes keys together, so no reader sees one half of it.
	Replace(ctx context.Context, values map[string]string, remove ...string) error
}
