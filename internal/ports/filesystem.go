package ports

import (
	"os"
)

// FileSystem provides the file system operations used while provisioning.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	// MkdirTemp creates a new directory below dir whose name begins with pattern.
	MkdirTemp(dir, pattern string) (string, error)
	// RemoveAll removes path and any children it contains.
	RemoveAll(path string) error
	// Glob returns the names of all files matching pattern.
	Glob(pattern string) ([]string, error)
	// ReadDir returns the names of the entries of a directory, sorted.
	ReadDir(path string) ([]string, error)
}
