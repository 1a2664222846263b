//go:build !windows

package filesystem

import "os"

// removeAll removes a tree. Unix permissions of the entries do not matter
// as long as their directories are writable.
func removeAll(path string) error {
	return os.RemoveAll(path)
}
