package jolpica

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileCacheRoundTripAndExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cache := &FileCache{
		Dir:    filepath.Join(t.TempDir(), "nested"),
		Policy: CachePolicy{CurrentSeasonTTL: time.Minute, PastSeasonTTL: time.Hour},
		Clock:  func() time.Time { return now },
	}

	_, ok := cache.Get("http://x/2024.json", 2024)
	require.False(t, ok)

	require.NoError(t, cache.Put("http://x/2024.json", []byte(`{"a":1}`)))
	path := cache.path("http://x/2024.json")
	require.NoError(t, os.Chtimes(path, now, now))

	data, ok := cache.Get("http://x/2024.json", 2024)
	require.True(t, ok)
	require.JSONEq(t, `{"a":1}`, string(data))

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("http://x/2024.json", 2024)
	require.False(t, ok)

	// past seasons stay fresh longer
	_, ok = cache.Get("http://x/2024.json", 2023)
	require.True(t, ok)
}

func TestCacheTTLDefaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Hour, cacheTTL(CachePolicy{}, 2024, now))
	require.Equal(t, 30*24*time.Hour, cacheTTL(CachePolicy{}, 2010, now))
}

func TestNilFileCacheIsNoop(t *testing.T) {
	var cache *FileCache
	_, ok := cache.Get("u", 2024)
	require.False(t, ok)
	require.NoError(t, cache.Put("u", []byte("x")))
}

func TestEnsureCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureCacheDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	require.Error(t, EnsureCacheDir(""))
}
