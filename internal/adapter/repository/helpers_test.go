package repository

import (
	"context"
	"errors"
	"time"
)

var errStoreDown = errors.New("connection refused")

// failingStore fails every operation, like an unreachable backend.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errStoreDown
}

func (failingStore) Set(ctx context.Context, key, value string) error { return errStoreDown }

func (failingStore) Remove(ctx context.Context, key string) error { return errStoreDown }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
