package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// FileSystem is a thread-safe in-memory test double for ports.FileSystem.
// Writing a file implicitly creates its parent directories.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
	temps int
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// AddFile adds a file to the mock filesystem.
func (fs *FileSystem) AddFile(path string, content string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.addParents(path)
	fs.files[filepath.Clean(path)] = []byte(content)
}

// AddDir adds a directory and its parents to the mock filesystem.
func (fs *FileSystem) AddDir(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.addDir(path)
}

// ReadFile reads a file from the mock filesystem.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if content, ok := fs.files[filepath.Clean(path)]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

// WriteFile writes a file to the mock filesystem.
func (fs *FileSystem) WriteFile(path string, data []byte, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.addParents(path)
	fs.files[filepath.Clean(path)] = append([]byte(nil), data...)
	return nil
}

// Exists checks if a file or directory exists in the mock filesystem.
func (fs *FileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	path = filepath.Clean(path)
	_, fileExists := fs.files[path]
	return fileExists || fs.dirs[path]
}

// IsDir checks if a path is a directory in the mock filesystem.
func (fs *FileSystem) IsDir(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.dirs[filepath.Clean(path)]
}

// MkdirAll creates a directory in the mock filesystem.
func (fs *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.addDir(path)
	return nil
}

// MkdirTemp creates a uniquely numbered directory below dir.
func (fs *FileSystem) MkdirTemp(dir, pattern string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if dir == "" {
		dir = os.TempDir()
	}
	fs.temps++
	path := filepath.Join(dir, fmt.Sprintf("%s%d", pattern, fs.temps))
	fs.addDir(path)
	return path, nil
}

// RemoveAll removes path and everything below it.
func (fs *FileSystem) RemoveAll(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)
	for p := range fs.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.files, p)
		}
	}
	for p := range fs.dirs {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.dirs, p)
		}
	}
	return nil
}

// Glob returns the sorted files and directories matching pattern.
func (fs *FileSystem) Glob(pattern string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	var matches []string
	for _, p := range fs.paths() {
		ok, err := filepath.Match(pattern, p)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// ReadDir returns the sorted names of the direct children of path.
func (fs *FileSystem) ReadDir(path string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	path = filepath.Clean(path)
	if !fs.dirs[path] {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	var names []string
	for _, p := range fs.paths() {
		if filepath.Dir(p) == path && p != path {
			names = append(names, filepath.Base(p))
		}
	}
	return names, nil
}

// Files returns a snapshot of all file contents keyed by path.
func (fs *FileSystem) Files() map[string]string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make(map[string]string, len(fs.files))
	for p, c := range fs.files {
		out[p] = string(c)
	}
	return out
}

// Reset clears all files and directories.
func (fs *FileSystem) Reset() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files = make(map[string][]byte)
	fs.dirs = make(map[string]bool)
}

func (fs *FileSystem) addDir(path string) {
	path = filepath.Clean(path)
	for {
		fs.dirs[path] = true
		parent := filepath.Dir(path)
		if parent == path {
			return
		}
		path = parent
	}
}

func (fs *FileSystem) addParents(path string) {
	fs.addDir(filepath.Dir(filepath.Clean(path)))
}

func (fs *FileSystem) paths() []string {
	all := make([]string, 0, len(fs.files)+len(fs.dirs))
	for p := range fs.files {
		all = append(all, p)
	}
	for p := range fs.dirs {
		all = append(all, p)
	}
	sort.Strings(all)
	return all
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
