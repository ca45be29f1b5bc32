/*
Package config loads server configuration from TOML with environment
overrides.

FILE FORMAT:
  [server]
  addr = ":8080"
  cors_origins = ["*"]
  read_timeout = "15s"
  write_timeout = "15s"
  idle_timeout = "60s"
  shutdown_timeout = "30s"

  [store]
  driver = "sqlite"          # sqlite | postgres | memory
  dsn = "payoff.db"

  [cache]
  driver = "memory"          # memory | redis | none
  redis_addr = "localhost:6379"
  ttl = "10m"

  [log]
  level = "info"
  development = false

  [history]
  retention = "720h"
  prune_interval = "1h"

  [plan]
  default_strategy = "avalanche"
  language = "en"

ENVIRONMENT:
  PAYOFF_ADDR, PAYOFF_STORE_DRIVER, PAYOFF_STORE_DSN, PAYOFF_REDIS_ADDR and
  PAYOFF_LOG_LEVEL override the file.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/warp/payoff-engine/payoff"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
	History HistoryConfig `toml:"history"`
	Plan    PlanConfig    `toml:"plan"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	CORSOrigins     []string      `toml:"cors_origins"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type CacheConfig struct {
	Driver    string        `toml:"driver"`
	RedisAddr string        `toml:"redis_addr"`
	TTL       time.Duration `toml:"ttl"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// HistoryConfig controls plan-run retention. A zero Retention keeps
// everything.
type HistoryConfig struct {
	Retention     time.Duration `toml:"retention"`
	PruneInterval time.Duration `toml:"prune_interval"`
}

type PlanConfig struct {
	DefaultStrategy string `toml:"default_strategy"`
	Language        string `toml:"language"`
}

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory" // nothing persists; demos and tests
)

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    "payoff.db",
		},
		Cache: CacheConfig{
			Driver:    CacheMemory,
			RedisAddr: "localhost:6379",
			TTL:       10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		History: HistoryConfig{
			Retention:     30 * 24 * time.Hour,
			PruneInterval: time.Hour,
		},
		Plan: PlanConfig{
			DefaultStrategy: string(payoff.Avalanche),
			Language:        "en",
		},
	}
}

// Load reads the TOML file at path on top of the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"PAYOFF_ADDR", &c.Server.Addr},
		{"PAYOFF_STORE_DRIVER", &c.Store.Driver},
		{"PAYOFF_STORE_DSN", &c.Store.DSN},
		{"PAYOFF_REDIS_ADDR", &c.Cache.RedisAddr},
		{"PAYOFF_LOG_LEVEL", &c.Log.Level},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && v != "" {
			*o.target = v
		}
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q must be sqlite, postgres or memory", c.Store.Driver))
	}
	switch c.Cache.Driver {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver %q must be memory, redis or none", c.Cache.Driver))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.History.Retention < 0 {
		errs = append(errs, errors.New("history.retention must not be negative"))
	}
	if c.History.Retention > 0 && c.History.PruneInterval <= 0 {
		errs = append(errs, errors.New("history.prune_interval must be positive when retention is set"))
	}
	if _, err := payoff.ParseStrategy(c.Plan.DefaultStrategy); err != nil {
		errs = append(errs, fmt.Errorf("plan.default_strategy: %w", err))
	}

	return errors.Join(errs...)
}
