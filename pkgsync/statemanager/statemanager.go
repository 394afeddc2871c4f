// Package statemanager persists the last synchronized copy of each manifest.
package statemanager

import (
	"context"
	"errors"
	"time"

	"github.com/steelcutops/pkgsync/pkgsync/manifest"
)

var (
	// ErrNotFound means no cache exists yet for a manifest.
	ErrNotFound = errors.New("cache not found")
	// ErrLocked means another process holds the cache lock.
	ErrLocked = errors.New("cache is locked by another process")
)

// State is the cached snapshot of one manifest.
type State struct {
	// Path is the manifest path relative to the manifest root. It also
	// names the cache file, so managers sharing a manifest share a cache.
	Path      string
	Packages  manifest.PackageSet
	Timestamp time.Time
}

// StateManager provides the interface for reading and updating snapshots.
type StateManager interface {
	// Load returns the cached snapshot or an error wrapping ErrNotFound.
	Load(ctx context.Context, path string) (State, error)

	// Bootstrap seeds a missing cache with data, the manifest content the
	// caller read.
	Bootstrap(ctx context.Context, path string, data []byte) error

	// Commit overwrites the cache with data, the manifest content that was
	// diffed and executed. Only call it after a successful execution.
	Commit(ctx context.Context, path string, data []byte) error

	// Lock serializes access to one cache. The returned func releases it.
	Lock(ctx context.Context, path string) (func() error, error)
}
