// Package store abstracts the external key-value store all instances
// coordinate through. Every operation is atomic at the store layer; the
// rest of the service assumes nothing stronger.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the key is absent (or expired)
	ErrNotFound = errors.New("key not found")
	// ErrUnavailable wraps transport-level failures so callers can decide
	// between failing closed (locks) and failing open (soft limits)
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the minimal atomic contract the abuse-control layer needs.
// A ttl of zero means the key never expires.
type Store interface {
	// Get returns the value at key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	// SetIfAbsent writes the key only if it does not already exist and
	// reports whether this call created it. This is the write-once
	// primitive behind redemption locks; it must never be emulated with
	// a read followed by a write.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// IncrementWithExpiry atomically increments the counter at key,
	// starting it at 1 with the given ttl when absent or expired, and
	// returns the post-increment count.
	IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
