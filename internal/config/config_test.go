package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gram-portal", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
	assert.True(t, cfg.Seed.DemoData)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 7*24*time.Hour, cfg.Scheduler.StaleAfter())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")
	t.Setenv("SEED_DEMO_DATA", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Seed.DemoData)
}

func TestSeedDefaultFollowsEnvironment(t *testing.T) {
	tests := []struct {
		env, seed string
		want      bool
	}{
		{"development", "", true},
		{"local", "", true},
		{"production", "", false},
		{"staging", "", false},
		{"production", "true", true},
		{"development", "false", false},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.seed, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			t.Setenv("SEED_DEMO_DATA", tt.seed)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Seed.DemoData)
		})
	}
}

func TestLoadRejectsUnknownSessionBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "cookie")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}
