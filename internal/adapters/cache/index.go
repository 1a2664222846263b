package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// IndexFile lists the entries of a cache directory.
const IndexFile = "index.toml"

type entry struct {
	Key     string    `toml:"key"`
	Archive string    `toml:"archive"`
	Paths   []string  `toml:"paths"`
	Created time.Time `toml:"created"`
	Size    int64     `toml:"size"`
}

type index struct {
	Entries []entry `toml:"entries"`
}

func loadIndex(dir string) (*index, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if errors.Is(err, os.ErrNotExist) {
		return &index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache index: %w", err)
	}
	var idx index
	if err := toml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse cache index: %w", err)
	}
	return &idx, nil
}

func (idx *index) save(dir string) error {
	data, err := toml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to encode cache index: %w", err)
	}
	path := filepath.Join(dir, IndexFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write cache index: %w", err)
	}
	return nil
}

// lookup returns the entry stored under primary, or else the newest entry
// whose key starts with the first matching prefix.
func (idx *index) lookup(primary string, prefixes []string) (entry, bool) {
	for _, e := range idx.Entries {
		if e.Key == primary {
			return e, true
		}
	}
	for _, prefix := range prefixes {
		var found []entry
		for _, e := range idx.Entries {
			if strings.HasPrefix(e.Key, prefix) {
				found = append(found, e)
			}
		}
		if len(found) == 0 {
			continue
		}
		slices.SortStableFunc(found, func(a, b entry) int {
			return b.Created.Compare(a.Created)
		})
		return found[0], true
	}
	return entry{}, false
}

func (idx *index) has(key string) bool {
	return slices.ContainsFunc(idx.Entries, func(e entry) bool { return e.Key == key })
}
