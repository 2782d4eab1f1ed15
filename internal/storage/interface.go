package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no value is stored under the key
	ErrNotFound = errors.New("key not found")
	// ErrNotLoaded is returned when an operation runs before Init or Load
	ErrNotLoaded = errors.New("storage not loaded")
	// ErrTimeout is returned by a timeout-wrapped adapter when a call does not finish in time
	ErrTimeout = errors.New("storage operation timed out")
)

// Adapter is a durable key-value store of opaque serialized records.
// Each Set is atomic for its key; there is no atomicity across keys.
// A call whose context is done before it commits must leave the store unchanged.
type Adapter interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A failed Set leaves the previous value intact.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Provider is an Adapter with a lifecycle, selected from the --config value.
type Provider interface {
	Adapter

	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Utils
	GetConfigPath() string
}
