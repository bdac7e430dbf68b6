// Package storage provides durable key-value buckets used for the rate
// cache, the failure ledger and the posted-transaction guard. Values are
// encoded as JSON; writes are flushed synchronously so a crash cannot lose
// an acknowledged mutation.
package storage

import (
	"encoding/json"
)

// KV is a durable key-value bucket holding values of a single type.
// Implementations are safe for a single writer; callers that share a bucket
// must serialize their own mutations.
type KV[T any] interface {
	// Get retrieves the value for key. The second return is false when the
	// key is absent.
	Get(key string) (T, bool, error)

	// Set stores value under key, overwriting any existing value.
	Set(key string, value T) error

	// SetIfAbsent stores value under key only when the key does not exist
	// yet. It reports whether the value was written.
	SetIfAbsent(key string, value T) (bool, error)

	// Has reports whether key exists.
	Has(key string) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// ForEach visits every key/value pair in the bucket.
	ForEach(fn func(key string, value T) error) error

	// Close releases the underlying store.
	Close() error
}

type (
	// MarshalFunc encodes a value for storage.
	MarshalFunc func(v any) ([]byte, error)

	// UnmarshalFunc decodes a stored value.
	UnmarshalFunc func(data []byte, v any) error
)

var (
	// Marshal encodes values written to a bucket.
	Marshal MarshalFunc = json.Marshal
	// Unmarshal decodes values read from a bucket.
	Unmarshal UnmarshalFunc = json.Unmarshal
)
