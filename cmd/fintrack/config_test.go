package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Config(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, "localhost:8000", cfg.ListenAddr)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "prod", cfg.Environment)
		assert.Equal(t, time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
		assert.Empty(t, cfg.DatabaseDSN)
		assert.Empty(t, cfg.AccessSecret)
		assert.Empty(t, cfg.RefreshSecret)
	})

	t.Run("env overrides defaults", func(t *testing.T) {
		env := map[string]string{
			"RUN_ADDRESS":        "0.0.0.0:9000",
			"DATABASE_URI":       "postgres://localhost/fintrack",
			"JWT_ACCESS_SECRET":  "access",
			"JWT_REFRESH_SECRET": "refresh",
			"JWT_ACCESS_TTL":     "90s",
			"JWT_REFRESH_TTL":    "48h",
			"CORS_ORIGINS":       "https://one.example.com,https://two.example.com",
			"LOG_LEVEL":          "debug",
			"ENVIRONMENT":        "dev",
		}

		cfg := NewConfig()
		cfg.LoadEnv(func(key string) string { return env[key] })

		assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
		assert.Equal(t, "postgres://localhost/fintrack", cfg.DatabaseDSN)
		assert.Equal(t, "access", cfg.AccessSecret)
		assert.Equal(t, "refresh", cfg.RefreshSecret)
		assert.Equal(t, 90*time.Second, cfg.AccessTokenTTL)
		assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
		assert.Equal(t, []string{"https://one.example.com", "https://two.example.com"}, cfg.CORSOrigins)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "dev", cfg.Environment)
	})

	t.Run("empty env keeps values", func(t *testing.T) {
		cfg := NewConfig()
		cfg.LoadEnv(func(key string) string { return "" })

		assert.Equal(t, "localhost:8000", cfg.ListenAddr)
		assert.Equal(t, time.Minute, cfg.AccessTokenTTL)
	})

	t.Run("malformed duration ignored", func(t *testing.T) {
		cfg := NewConfig()
		cfg.LoadEnv(func(key string) string {
			if key == "JWT_ACCESS_TTL" {
				return "ninety seconds"
			}
			return ""
		})

		assert.Equal(t, time.Minute, cfg.AccessTokenTTL)
	})

	t.Run("flags override env", func(t *testing.T) {
		cfg := NewConfig()
		cfg.LoadEnv(func(key string) string {
			if key == "RUN_ADDRESS" {
				return "0.0.0.0:9000"
			}
			return ""
		})

		err := cfg.ParseFlags([]string{
			"-a", "127.0.0.1:7000",
			"--database", "postgres://localhost/fintrack",
			"--access-ttl", "30s",
			"--cors-origins", "https://app.example.com",
			"-e", "dev",
		})

		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7000", cfg.ListenAddr)
		assert.Equal(t, "postgres://localhost/fintrack", cfg.DatabaseDSN)
		assert.Equal(t, 30*time.Second, cfg.AccessTokenTTL)
		assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
		assert.Equal(t, "dev", cfg.Environment)
	})

	t.Run("unknown flag is an error", func(t *testing.T) {
		cfg := NewConfig()
		err := cfg.ParseFlags([]string{"--definitely-not-a-flag"})
		require.Error(t, err)
	})
}
