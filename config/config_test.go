package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/efootball?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{"SERVER_PORT", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "TOURNAMENT_TIMEZONE",
		"DB_CONNECT_TIMEOUT", "EXPORT_INTERVAL", "R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
	assert.Zero(t, cfg.ExportInterval)
	assert.False(t, cfg.R2Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TOURNAMENT_TIMEZONE", "Africa/Nairobi")
	t.Setenv("DB_CONNECT_TIMEOUT", "2s")
	t.Setenv("EXPORT_INTERVAL", "5m")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "bucket")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://cdn.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "Africa/Nairobi", cfg.Location.String())
	assert.Equal(t, 2*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ExportInterval)
	assert.True(t, cfg.R2Enabled())
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database url": {"DATABASE_URL": ""},
		"missing jwt secret":   {"JWT_SECRET_KEY": ""},
		"port not a number":    {"SERVER_PORT": "http"},
		"port out of range":    {"SERVER_PORT": "70000"},
		"bad log level":        {"LOG_LEVEL": "loud"},
		"bad timezone":         {"TOURNAMENT_TIMEZONE": "Mars/Olympus"},
		"bad timeout":          {"DB_CONNECT_TIMEOUT": "soon"},
		"bad export interval":  {"EXPORT_INTERVAL": "hourly"},
		"negative interval":    {"EXPORT_INTERVAL": "-1m"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
