package ports

import "context"

// CacheService stores and restores directory trees under opaque keys.
type CacheService interface {
	// Available reports whether the service can be used in this environment.
	Available() bool

	// Restore restores paths from the first entry matching primaryKey, or the
	// newest entry whose key starts with one of restoreKeys (in order).
	// It returns the key of the restored entry, or "" if nothing matched.
	Restore(ctx context.Context, paths []string, primaryKey string, restoreKeys []string) (string, error)

	// Save stores paths under key.
	Save(ctx context.Context, paths []string, key string) error
}
