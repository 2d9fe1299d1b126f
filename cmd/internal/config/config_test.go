package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ESTATEHUB_AUTH_JWT_SECRET", testSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 6060, cfg.Server.Port)
	require.Equal(t, 3, cfg.Auction.BidRetries)
	require.Equal(t, 7*24*time.Hour, cfg.Auction.DefaultDuration.Duration)
	require.Equal(t, 30, cfg.Scheduling.DefaultSlotMinutes)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_level = "debug"

[server]
port = 8080
cors_origins = ["https://example.com"]

[database]
driver = "postgres"
dsn = "postgres://localhost/estatehub"

[auth]
jwt_secret = "` + testSecret + `"
token_ttl = "2h"

[auction]
bid_retries = 5
default_duration = "72h"

[scheduling]
time_zone = "Europe/Lisbon"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ESTATEHUB_SERVER_PORT", "9090")
	t.Setenv("ESTATEHUB_REDIS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, []string{"https://example.com"}, cfg.Server.CORSOrigins)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL.Duration)
	require.Equal(t, 5, cfg.Auction.BidRetries)
	require.Equal(t, 72*time.Hour, cfg.Auction.DefaultDuration.Duration)
	require.True(t, cfg.Redis.Enabled)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "Europe/Lisbon", loc.String())
}

func TestLoad_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"short_secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"bad_driver", func(c *Config) { c.Database.Driver = "mysql" }, "unknown driver"},
		{"cognito_incomplete", func(c *Config) { c.Auth.Provider = ProviderCognito }, "cognito"},
		{"bad_zone", func(c *Config) { c.Scheduling.TimeZone = "Mars/Olympus" }, "time_zone"},
		{"no_retries", func(c *Config) { c.Auction.BidRetries = 0 }, "bid_retries"},
		{"bad_port", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"bad_log_level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Auth.JWTSecret = testSecret
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
