package port

import "context"

type KVStore interface {
	// Get returns the value stored under key, found is false when the key is absent
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set overwrites the value under key atomically
	Set(ctx context.Context, key, value string) error

	// Remove deletes key, absent keys are not an error
	Remove(ctx context.Context, key string) error
}
