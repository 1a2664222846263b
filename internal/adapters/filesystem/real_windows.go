//go:build windows

package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// removeAll removes a tree. install-tl marks some files read-only, which
// makes DeleteFile fail on Windows, so the attribute is cleared first.
func removeAll(path string) error {
	err := os.RemoveAll(path)
	if err == nil {
		return nil
	}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		name, convErr := windows.UTF16PtrFromString(p)
		if convErr != nil {
			return nil
		}
		attrs, attrErr := windows.GetFileAttributes(name)
		if attrErr != nil || attrs&windows.FILE_ATTRIBUTE_READONLY == 0 {
			return nil
		}
		_ = windows.SetFileAttributes(name, attrs&^windows.FILE_ATTRIBUTE_READONLY)
		return nil
	})
	return os.RemoveAll(path)
}
