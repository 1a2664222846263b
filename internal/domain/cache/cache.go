// Package cache decides how an installation is restored from and saved to
// the cache service. Cache failures never stop a run; they are logged as
// warnings and treated as misses.
package cache

import (
	"context"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// KeyPrefix starts every cache key.
const KeyPrefix = "setup-texlive"

// Descriptor identifies the cache entries of an installation.
type Descriptor struct {
	// Target is the directory that is cached.
	Target string
	// PrimaryKey identifies an entry with exactly the requested packages.
	PrimaryKey string
	// RestoreKeys are prefixes of acceptable entries for the same release.
	RestoreKeys []string
}

// NewDescriptor builds the descriptor of the installation at target.
// packages must be sorted.
func NewDescriptor(target string, platform texlive.Platform, arch string, version texlive.Version, packages []string) Descriptor {
	base := strings.Join([]string{KeyPrefix, string(platform), arch, version.String()}, "-") + "-"
	return Descriptor{
		Target:      target,
		PrimaryKey:  base + hashPackages(packages),
		RestoreKeys: []string{base},
	}
}

func hashPackages(packages []string) string {
	sum := blake2b.Sum256([]byte(strings.Join(packages, "\n")))
	return hex.EncodeToString(sum[:16])
}

// Outcome is the result of a restore attempt.
type Outcome int

// Restore outcomes.
const (
	Miss Outcome = iota
	PartialHit
	FullHit
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case FullHit:
		return "full-hit"
	case PartialHit:
		return "partial-hit"
	default:
		return "miss"
	}
}

// Restored reports whether an installation tree was restored.
func (o Outcome) Restored() bool {
	return o != Miss
}

// Client wraps a cache service with best-effort semantics.
type Client struct {
	service ports.CacheService
	logger  ports.Logger
}

// NewClient creates a Client.
func NewClient(service ports.CacheService, logger ports.Logger) *Client {
	return &Client{service: service, logger: logger}
}

// Restore restores d.Target. An entry stored under the primary key is a
// full hit; an entry found through a restore key is a partial hit.
func (c *Client) Restore(ctx context.Context, d Descriptor) Outcome {
	key, err := c.service.Restore(ctx, []string{d.Target}, d.PrimaryKey, d.RestoreKeys)
	if err != nil {
		c.logger.Warn(ctx, "Failed to restore cache", ports.Err(fault.Cache("restore failed", err)))
		return Miss
	}
	if key == "" {
		c.logger.Info(ctx, "Cache not found")
		return Miss
	}
	c.logger.Info(ctx, "Restored from cache", ports.F("target", d.Target), ports.F("key", key))
	if key == d.PrimaryKey {
		return FullHit
	}
	return PartialHit
}

// Save stores target under key. It reports whether the entry was saved.
func (c *Client) Save(ctx context.Context, target, key string) bool {
	if err := c.service.Save(ctx, []string{target}, key); err != nil {
		c.logger.Warn(ctx, "Failed to save to cache", ports.Err(fault.Cache("save failed", err)))
		return false
	}
	c.logger.Info(ctx, "Saved to cache", ports.F("target", target), ports.F("key", key))
	return true
}
