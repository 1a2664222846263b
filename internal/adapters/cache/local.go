// Package cache implements ports.CacheService on a local directory, such as
// the tool cache of a self-hosted runner.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Environment variables selecting the cache directory.
const (
	EnvCacheDir  = "SETUP_TEXLIVE_CACHE_DIR"
	EnvToolCache = "RUNNER_TOOL_CACHE"
)

const lockFile = ".lock"

// DefaultDir returns the cache directory configured in the environment, or
// "" when there is none.
func DefaultDir(lookup func(string) (string, bool)) string {
	if dir, ok := lookup(EnvCacheDir); ok && dir != "" {
		return dir
	}
	if dir, ok := lookup(EnvToolCache); ok && dir != "" {
		return filepath.Join(dir, "setup-texlive")
	}
	return ""
}

// LocalCache stores entries as archives in a directory. Entries are
// immutable; saving an existing key is a no-op.
type LocalCache struct {
	dir    string
	logger ports.Logger
	now    func() time.Time
}

// NewLocalCache creates a LocalCache in dir. An empty dir yields an
// unavailable cache.
func NewLocalCache(dir string, logger ports.Logger) *LocalCache {
	return &LocalCache{dir: dir, logger: logger, now: time.Now}
}

// Dir returns the cache directory.
func (c *LocalCache) Dir() string {
	return c.dir
}

// Available implements ports.CacheService.
func (c *LocalCache) Available() bool {
	return c.dir != ""
}

// Restore implements ports.CacheService. Existing content at paths is
// replaced by the entry.
func (c *LocalCache) Restore(ctx context.Context, paths []string, primaryKey string, restoreKeys []string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("cache directory is not configured")
	}
	if !dirExists(c.dir) {
		return "", nil
	}

	var found entry
	var ok bool
	err := c.withLock(func() error {
		idx, err := loadIndex(c.dir)
		if err != nil {
			return err
		}
		found, ok = idx.lookup(primaryKey, restoreKeys)
		if !ok {
			return nil
		}
		if len(found.Paths) != len(paths) {
			return fmt.Errorf("entry %s holds %d paths, %d requested", found.Key, len(found.Paths), len(paths))
		}
		return restore(ctx, filepath.Join(c.dir, found.Archive), paths)
	})
	if err != nil || !ok {
		return "", err
	}

	c.logger.Debug(ctx, "Restored cache entry", ports.F("key", found.Key), ports.F("archive", found.Archive))
	return found.Key, nil
}

// restore extracts archive into staging directories next to paths and
// moves them into place once every entry has been read, so a failed read
// leaves paths untouched.
func restore(ctx context.Context, archive string, paths []string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	staged := make([]string, 0, len(paths))
	defer func() {
		for _, dir := range staged {
			_ = os.RemoveAll(dir)
		}
	}()
	for _, p := range paths {
		parent := filepath.Dir(p)
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return err
		}
		dir, err := os.MkdirTemp(parent, "."+filepath.Base(p)+"-restore-")
		if err != nil {
			return err
		}
		staged = append(staged, dir)
		if err := os.Chmod(dir, 0o755); err != nil {
			return err
		}
	}

	if err := readArchive(ctx, f, staged); err != nil {
		return err
	}

	for i, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
		if err := os.Rename(staged[i], p); err != nil {
			return err
		}
	}
	return nil
}

// Save implements ports.CacheService.
func (c *LocalCache) Save(ctx context.Context, paths []string, key string) error {
	if !c.Available() {
		return fmt.Errorf("cache directory is not configured")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	return c.withLock(func() error {
		idx, err := loadIndex(c.dir)
		if err != nil {
			return err
		}
		if idx.has(key) {
			c.logger.Info(ctx, "Cache entry already exists", ports.F("key", key))
			return nil
		}

		name := uuid.NewString() + ".tar.zst"
		archive := filepath.Join(c.dir, name)
		size, err := c.write(ctx, archive, paths)
		if err != nil {
			_ = os.Remove(archive)
			return err
		}

		abs := make([]string, len(paths))
		for i, p := range paths {
			if abs[i], err = filepath.Abs(p); err != nil {
				abs[i] = p
			}
		}
		idx.Entries = append(idx.Entries, entry{
			Key:     key,
			Archive: name,
			Paths:   abs,
			Created: c.now().UTC(),
			Size:    size,
		})
		if err := idx.save(c.dir); err != nil {
			_ = os.Remove(archive)
			return err
		}
		c.logger.Debug(ctx, "Saved cache entry", ports.F("key", key), ports.F("bytes", size))
		return nil
	})
}

func (c *LocalCache) write(ctx context.Context, archive string, paths []string) (int64, error) {
	f, err := os.Create(archive)
	if err != nil {
		return 0, err
	}
	if err := writeArchive(ctx, f, paths); err != nil {
		_ = f.Close()
		return 0, err
	}
	info, err := f.Stat()
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (c *LocalCache) withLock(fn func() error) error {
	l, err := acquireLock(filepath.Join(c.dir, lockFile))
	if err != nil {
		return err
	}
	defer func() {
		_ = l.release()
	}()
	return fn()
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Ensure LocalCache implements ports.CacheService.
var _ ports.CacheService = (*LocalCache)(nil)
