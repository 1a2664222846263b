//go:build !windows

package cache

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lock holds an exclusive advisory lock on the cache directory. The kernel
// drops it when the process exits, so an orphaned lock file is harmless.
type lock struct {
	file *os.File
}

func acquireLock(path string) (*lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}
	return &lock{file: f}, nil
}

func (l *lock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	if closeErr := l.file.Close(); err == nil {
		err = closeErr
	}
	l.file = nil
	return err
}
