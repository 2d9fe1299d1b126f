// Package config defines the service configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is populated from Defaults, then an optional TOML file, then
// ESTATEHUB_* environment variables.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Auth       AuthConfig       `toml:"auth"`
	Redis      RedisConfig      `toml:"redis"`
	Scheduling SchedulingConfig `toml:"scheduling"`
	Auction    AuctionConfig    `toml:"auction"`
	LogLevel   string           `toml:"log_level"`
}

type ServerConfig struct {
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	RateLimit       float64  `toml:"rate_limit"` // requests per second per client IP; 0 disables
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string   `toml:"driver"`
	DSN             string   `toml:"dsn"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime duration `toml:"conn_max_lifetime"`
	Debug           bool     `toml:"debug"`
}

type AuthConfig struct {
	Provider  string        `toml:"provider"`
	JWTSecret string        `toml:"jwt_secret"`
	TokenTTL  duration      `toml:"token_ttl"`
	Cognito   CognitoConfig `toml:"cognito"`
}

type CognitoConfig struct {
	Region     string `toml:"region"`
	UserPoolID string `toml:"user_pool_id"`
	ClientID   string `toml:"client_id"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

type SchedulingConfig struct {
	TimeZone           string `toml:"time_zone"`
	DefaultSlotMinutes int    `toml:"default_slot_minutes"`
}

type AuctionConfig struct {
	BidRetries      int      `toml:"bid_retries"`
	DefaultDuration duration `toml:"default_duration"`
}

// duration lets the TOML decoder read values such as "30s" or "168h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

const (
	ProviderLocal   = "local"
	ProviderCognito = "cognito"
)

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            6060,
			CORSOrigins:     []string{"*"},
			RateLimit:       20,
			ShutdownTimeout: duration{10 * time.Second},
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "estatehub.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: duration{30 * time.Minute},
		},
		Auth: AuthConfig{
			Provider: ProviderLocal,
			TokenTTL: duration{time.Hour},
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "estatehub:auctions",
		},
		Scheduling: SchedulingConfig{
			TimeZone:           "UTC",
			DefaultSlotMinutes: 30,
		},
		Auction: AuctionConfig{
			BidRetries:      3,
			DefaultDuration: duration{7 * 24 * time.Hour},
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "off": true,
}

// Location resolves the scheduling time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Scheduling.TimeZone)
}

func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error, off)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must not be negative")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("database: unknown driver %q (valid: sqlite, postgres)", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, "database: dsn must not be empty")
	}

	switch c.Auth.Provider {
	case ProviderLocal:
		if len(c.Auth.JWTSecret) < 32 {
			errs = append(errs, "auth: jwt_secret must be at least 32 characters for the local provider")
		}
		if c.Auth.TokenTTL.Duration <= 0 {
			errs = append(errs, "auth: token_ttl must be positive")
		}
	case ProviderCognito:
		if c.Auth.Cognito.Region == "" || c.Auth.Cognito.UserPoolID == "" || c.Auth.Cognito.ClientID == "" {
			errs = append(errs, "auth: cognito region, user_pool_id and client_id are required")
		}
	default:
		errs = append(errs, fmt.Sprintf("auth: unknown provider %q (valid: local, cognito)", c.Auth.Provider))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr is required when enabled")
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("scheduling: unknown time_zone %q", c.Scheduling.TimeZone))
	}
	if c.Scheduling.DefaultSlotMinutes < 1 || c.Scheduling.DefaultSlotMinutes > 480 {
		errs = append(errs, "scheduling: default_slot_minutes must be 1-480")
	}

	if c.Auction.BidRetries < 1 {
		errs = append(errs, "auction: bid_retries must be at least 1")
	}
	if c.Auction.DefaultDuration.Duration <= 0 {
		errs = append(errs, "auction: default_duration must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
