package jolpica

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// CachePolicy controls how long cached responses stay fresh. Completed
// seasons do not change, so they are kept much longer than the current one.
type CachePolicy struct {
	CurrentSeasonTTL time.Duration
	PastSeasonTTL    time.Duration
}

func cachePolicyWithDefaults(policy CachePolicy) CachePolicy {
	if policy.CurrentSeasonTTL == 0 {
		policy.CurrentSeasonTTL = time.Hour
	}
	if policy.PastSeasonTTL == 0 {
		policy.PastSeasonTTL = 30 * 24 * time.Hour
	}
	return policy
}

func cacheTTL(policy CachePolicy, season int, now time.Time) time.Duration {
	policy = cachePolicyWithDefaults(policy)
	if season < now.Year() {
		return policy.PastSeasonTTL
	}
	return policy.CurrentSeasonTTL
}

// FileCache stores raw API responses on disk keyed by request URL.
type FileCache struct {
	Dir    string
	Policy CachePolicy
	Clock  func() time.Time
}

// EnsureCacheDir creates the cache directory if needed.
func EnsureCacheDir(dir string) error {
	if dir == "" {
		return errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return nil
}

// Get returns the cached body for url if it is younger than the TTL for
// season.
func (c *FileCache) Get(url string, season int) ([]byte, bool) {
	if c == nil || c.Dir == "" {
		return nil, false
	}
	path := c.path(url)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	now := c.now()
	if now.Sub(info.ModTime()) > cacheTTL(c.Policy, season, now) {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores body for url. Writes go through a temp file and rename.
func (c *FileCache) Put(url string, body []byte) error {
	if c == nil || c.Dir == "" {
		return nil
	}
	if err := EnsureCacheDir(c.Dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.Dir, "resp-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(url)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

func (c *FileCache) path(url string) string {
	return filepath.Join(c.Dir, strconv.FormatUint(xxh3.HashString(url), 16)+".json")
}

func (c *FileCache) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}
