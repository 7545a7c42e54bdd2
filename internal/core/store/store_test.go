package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vibecheck/vibecheck/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLKeepsExistingAuthToken", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?authToken=original",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=original", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./vibecheck.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./vibecheck.db", dsn)
	})

	t.Run("BarePathGetsFilePrefix", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.StoreConfig{Path: dir + "/vibecheck.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:"+dir+"/vibecheck.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		_, err := buildLibsqlDSN(config.StoreConfig{})
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		dsn, err := buildLibsqlDSN(config.StoreConfig{Path: ":memory:"})
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestNormalizeTitle(t *testing.T) {
	require.Equal(t, "the matrix", NormalizeTitle("The Matrix"))
	require.Equal(t, "the matrix", NormalizeTitle("  THE   Matrix  "))
	require.Equal(t, "blade runner 2049", NormalizeTitle("Blade\tRunner\n2049"))
	require.Equal(t, "", NormalizeTitle("   "))
}

func TestStoreNilGuards(t *testing.T) {
	var s *Store
	require.NoError(t, s.Close())
	require.Error(t, s.Ping(nil))
	require.Equal(t, "", s.Driver())

	_, err := s.GetCachedAnalysis(nil, "title", "gemini", "model")
	require.Error(t, err)
	require.Error(t, s.SetCachedAnalysis(nil, "title", "gemini", "model", nil, 0))
	_, err = s.GetRateLimit(nil, "api.example")
	require.Error(t, err)
}
