package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Path returns the config file location, ESTATEHUB_CONFIG or config.toml.
func Path() string {
	if p := os.Getenv("ESTATEHUB_CONFIG"); p != "" {
		return p
	}
	return "config.toml"
}

// Load merges the TOML file at path over the defaults and applies
// ESTATEHUB_* overrides. A missing file is not an error. The result is not
// validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server
	setInt(&cfg.Server.Port, "ESTATEHUB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ESTATEHUB_SERVER_CORS_ORIGINS")
	setFloat64(&cfg.Server.RateLimit, "ESTATEHUB_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.ShutdownTimeout, "ESTATEHUB_SERVER_SHUTDOWN_TIMEOUT")

	// Database
	setStr(&cfg.Database.Driver, "ESTATEHUB_DATABASE_DRIVER")
	setStr(&cfg.Database.DSN, "ESTATEHUB_DATABASE_DSN")
	setInt(&cfg.Database.MaxOpenConns, "ESTATEHUB_DATABASE_MAX_OPEN_CONNS")
	setInt(&cfg.Database.MaxIdleConns, "ESTATEHUB_DATABASE_MAX_IDLE_CONNS")
	setDuration(&cfg.Database.ConnMaxLifetime, "ESTATEHUB_DATABASE_CONN_MAX_LIFETIME")
	setBool(&cfg.Database.Debug, "ESTATEHUB_DATABASE_DEBUG")

	// Auth
	setStr(&cfg.Auth.Provider, "ESTATEHUB_AUTH_PROVIDER")
	setStr(&cfg.Auth.JWTSecret, "ESTATEHUB_AUTH_JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "ESTATEHUB_AUTH_TOKEN_TTL")
	setStr(&cfg.Auth.Cognito.Region, "ESTATEHUB_AUTH_COGNITO_REGION")
	setStr(&cfg.Auth.Cognito.UserPoolID, "ESTATEHUB_AUTH_COGNITO_USER_POOL_ID")
	setStr(&cfg.Auth.Cognito.ClientID, "ESTATEHUB_AUTH_COGNITO_CLIENT_ID")

	// Redis
	setBool(&cfg.Redis.Enabled, "ESTATEHUB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ESTATEHUB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ESTATEHUB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ESTATEHUB_REDIS_DB")
	setStr(&cfg.Redis.Channel, "ESTATEHUB_REDIS_CHANNEL")

	// Scheduling
	setStr(&cfg.Scheduling.TimeZone, "ESTATEHUB_SCHEDULING_TIME_ZONE")
	setInt(&cfg.Scheduling.DefaultSlotMinutes, "ESTATEHUB_SCHEDULING_DEFAULT_SLOT_MINUTES")

	// Auction
	setInt(&cfg.Auction.BidRetries, "ESTATEHUB_AUCTION_BID_RETRIES")
	setDuration(&cfg.Auction.DefaultDuration, "ESTATEHUB_AUCTION_DEFAULT_DURATION")

	setStr(&cfg.LogLevel, "ESTATEHUB_LOG_LEVEL")
}

// Each helper only mutates the target when the variable is set and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
