package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(env(map[string]string{
			"MONIFLY_STORE_URL": "user:pass@/monifly",
			"MONIFLY_STORE_KEY": "secret",
		}))
		require.NoError(t, err)
		assert.Equal(t, "mysql", cfg.StoreDriver)
		assert.Equal(t, "http://localhost:3000", cfg.SiteURL)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
		assert.Equal(t, "America/Bogota", cfg.Timezone.String())
		assert.False(t, cfg.LogDev)
		assert.False(t, cfg.TrustProxy)
	})
	t.Run("missing mandatory values are named", func(t *testing.T) {
		_, err := Load(env(map[string]string{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MONIFLY_STORE_URL")
		assert.Contains(t, err.Error(), "MONIFLY_STORE_KEY")
	})
	t.Run("overrides", func(t *testing.T) {
		cfg, err := Load(env(map[string]string{
			"MONIFLY_STORE_DRIVER":  "pgx",
			"MONIFLY_STORE_URL":     "postgres://localhost/monifly",
			"MONIFLY_STORE_KEY":     "secret",
			"MONIFLY_SITE_URL":      "https://monifly.app/",
			"MONIFLY_LOG_DEV":       "true",
			"MONIFLY_STORE_TIMEOUT": "2s",
			"MONIFLY_TIMEZONE":      "UTC",
			"MONIFLY_TRUST_PROXY":   "true",
		}))
		require.NoError(t, err)
		assert.Equal(t, "pgx", cfg.StoreDriver)
		assert.True(t, cfg.TrustProxy)
		assert.Equal(t, "https://monifly.app", cfg.SiteURL)
		assert.True(t, cfg.LogDev)
		assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	})
	t.Run("memory driver needs no url", func(t *testing.T) {
		cfg, err := Load(env(map[string]string{
			"MONIFLY_STORE_DRIVER": "memory",
			"MONIFLY_STORE_KEY":    "secret",
			"MONIFLY_SEED_DEMO":    "1",
		}))
		require.NoError(t, err)
		assert.Equal(t, DriverMemory, cfg.StoreDriver)
		assert.True(t, cfg.SeedDemo)
	})
	t.Run("bad driver", func(t *testing.T) {
		_, err := Load(env(map[string]string{
			"MONIFLY_STORE_DRIVER": "sqlite",
			"MONIFLY_STORE_URL":    "x",
			"MONIFLY_STORE_KEY":    "y",
		}))
		assert.Error(t, err)
	})
}
