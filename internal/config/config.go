// Package config loads the admin server and mock backend configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Suggest SuggestConfig `yaml:"suggest"`
	Cache   CacheConfig   `yaml:"cache"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
	Mock    MockConfig    `yaml:"mock"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SuggestConfig struct {
	Delay time.Duration `yaml:"delay"`
}

type CacheConfig struct {
	Driver        string        `yaml:"driver"` // memory, redis, none
	TTL           time.Duration `yaml:"ttl"`
	Size          int           `yaml:"size"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

type SessionConfig struct {
	MaxAge      time.Duration `yaml:"max_age"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Exporter    string `yaml:"exporter"`
	ServiceName string `yaml:"service_name"`
}

type MockConfig struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`
	Seed   bool   `yaml:"seed"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Suggest: SuggestConfig{
			Delay: 300 * time.Millisecond,
		},
		Cache: CacheConfig{
			Driver: "memory",
			TTL:    30 * time.Second,
			Size:   512,
		},
		Session: SessionConfig{
			MaxAge:      24 * time.Hour,
			IdleTimeout: 30 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "practice-registry",
		},
		Mock: MockConfig{
			Addr:   ":8080",
			DBPath: "practice-mock.db",
			Seed:   true,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("PRACTICE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("PRACTICE_SERVER_HOST", &cfg.Server.Host)
	str("PRACTICE_BACKEND_URL", &cfg.Backend.BaseURL)
	str("PRACTICE_CACHE_DRIVER", &cfg.Cache.Driver)
	str("PRACTICE_REDIS_ADDR", &cfg.Cache.RedisAddr)
	str("PRACTICE_REDIS_PASSWORD", &cfg.Cache.RedisPassword)
	str("PRACTICE_LOG_LEVEL", &cfg.Log.Level)
	str("PRACTICE_LOG_FORMAT", &cfg.Log.Format)
	str("PRACTICE_TRACE_EXPORTER", &cfg.Tracing.Exporter)
	str("PRACTICE_MOCK_ADDR", &cfg.Mock.Addr)
	str("PRACTICE_MOCK_DB_PATH", &cfg.Mock.DBPath)

	for _, fn := range []func() error{
		func() error { return num("PRACTICE_SERVER_PORT", &cfg.Server.Port) },
		func() error { return num("PRACTICE_CACHE_SIZE", &cfg.Cache.Size) },
		func() error { return num("PRACTICE_REDIS_DB", &cfg.Cache.RedisDB) },
		func() error { return dur("PRACTICE_BACKEND_TIMEOUT", &cfg.Backend.Timeout) },
		func() error { return dur("PRACTICE_SUGGEST_DELAY", &cfg.Suggest.Delay) },
		func() error { return dur("PRACTICE_CACHE_TTL", &cfg.Cache.TTL) },
		func() error { return dur("PRACTICE_SESSION_MAX_AGE", &cfg.Session.MaxAge) },
		func() error { return dur("PRACTICE_SESSION_IDLE_TIMEOUT", &cfg.Session.IdleTimeout) },
		func() error { return flag("PRACTICE_TRACING_ENABLED", &cfg.Tracing.Enabled) },
		func() error { return flag("PRACTICE_MOCK_SEED", &cfg.Mock.Seed) },
	} {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	switch c.Cache.Driver {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Backend.Timeout < 0 || c.Suggest.Delay < 0 || c.Cache.TTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.Session.MaxAge <= 0 || c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session max_age and idle_timeout must be positive")
	}
	return nil
}
