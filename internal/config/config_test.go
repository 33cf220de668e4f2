package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToMemoryStore(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.False(t, cfg.SubmissionThrottle)
}

func TestLoadAutoSelectsBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.StoreBackend)

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.StoreBackend)

	t.Setenv("STORE_BACKEND", "memory")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
}

func TestLoadParsesOriginsAndBools(t *testing.T) {
	t.Setenv("FRONTEND_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SUBMISSION_THROTTLE", "true")
	t.Setenv("COOKIE_SECURE", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.FrontendOrigins)
	assert.True(t, cfg.SubmissionThrottle)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TZ", "Not/AZone")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongoo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongoo")

	t.Setenv("STORE_BACKEND", " Redis ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.StoreBackend)
}

func TestLoadTrustProxyDefaultsOff(t *testing.T) {
	t.Setenv("TRUST_PROXY", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.TrustProxy)

	t.Setenv("TRUST_PROXY", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxy)
}
