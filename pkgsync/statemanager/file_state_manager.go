package statemanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/moby/sys/atomicwriter"

	"github.com/steelcutops/pkgsync/logger"
	"github.com/steelcutops/pkgsync/pkgsync/manifest"
)

const (
	defaultLockTimeout = 30 * time.Second
	lockPollEvery      = 100 * time.Millisecond
	lockSuffix         = ".lock"
)

// FileStateManager keeps one cache file per manifest under CacheDir,
// mirroring the manifest's path below Root.
type FileStateManager struct {
	Root        string
	CacheDir    string
	LockTimeout time.Duration
	Logger      logger.Logger
}

func NewFileStateManager(root, cacheDir string, l logger.Logger) *FileStateManager {
	if l == nil {
		l = logger.NewNop()
	}
	return &FileStateManager{
		Root:        root,
		CacheDir:    cacheDir,
		LockTimeout: defaultLockTimeout,
		Logger:      l,
	}
}

func (f *FileStateManager) ManifestPath(path string) string {
	return filepath.Join(f.Root, path)
}

func (f *FileStateManager) CachePath(path string) string {
	return filepath.Join(f.CacheDir, path)
}

func (f *FileStateManager) Load(ctx context.Context, path string) (State, error) {
	cachePath := f.CachePath(path)
	set, err := manifest.ReadFile(cachePath)
	if errors.Is(err, manifest.ErrManifestNotFound) {
		return State{}, fmt.Errorf("%w: %s", ErrNotFound, cachePath)
	}
	if err != nil {
		return State{}, err
	}

	state := State{Path: path, Packages: set}
	if info, err := os.Stat(cachePath); err == nil {
		state.Timestamp = info.ModTime()
	}
	return state, nil
}

func (f *FileStateManager) Bootstrap(ctx context.Context, path string, data []byte) error {
	f.Logger.Info("Bootstrapping cache", "manifest", f.ManifestPath(path), "cache", f.CachePath(path))
	return f.write(path, data)
}

func (f *FileStateManager) Commit(ctx context.Context, path string, data []byte) error {
	f.Logger.Debug("Committing cache", "manifest", f.ManifestPath(path), "cache", f.CachePath(path))
	return f.write(path, data)
}

// write atomically replaces the cache file with data. The manifest on disk
// is never reread here; the cache holds what the caller diffed.
func (f *FileStateManager) write(path string, data []byte) error {
	dst := f.CachePath(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := atomicwriter.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", dst, err)
	}
	return nil
}

func (f *FileStateManager) Lock(ctx context.Context, path string) (func() error, error) {
	lockPath := f.CachePath(path) + lockSuffix
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	timeout := f.LockTimeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lock := flock.New(lockPath)
	locked, err := lock.TryLockContext(ctx, lockPollEvery)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	return lock.Unlock, nil
}
