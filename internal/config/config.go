// Package config loads the wikisophy configuration.
//
// Values are resolved in increasing priority: built-in defaults, the YAML file, then
// WIKISOPHY_* environment variables. Before reading the environment, .env files are loaded:
// only WIKISOPHY_ENV_FILE if it is set, otherwise .env.local then .env. Variables already
// present in the environment are never overwritten by those files.
//
// Example file:
//
//	journey:
//	  target: Philosophy
//	  max_steps: 40
//	wikipedia:
//	  language: pt
//	  mode: page
//	cache:
//	  backend: redis
//	  redis:
//	    addr: localhost:6379
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Config is the complete application configuration.
type Config struct {
	Journey   JourneyConfig   `mapstructure:"journey"`
	Wikipedia WikipediaConfig `mapstructure:"wikipedia"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// JourneyConfig holds the defaults applied to every journey.
type JourneyConfig struct {
	Target   string `mapstructure:"target" validate:"required"`
	MaxSteps int    `mapstructure:"max_steps" validate:"min=1,max=1000"`
}

// WikipediaConfig configures the encyclopedia client.
type WikipediaConfig struct {
	Language     string        `mapstructure:"language" validate:"required,min=2,max=16"`
	BaseURL      string        `mapstructure:"base_url" validate:"omitempty,url"`
	Mode         string        `mapstructure:"mode" validate:"oneof=parse page"`
	UserAgent    string        `mapstructure:"user_agent" validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries      int           `mapstructure:"retries" validate:"min=0,max=10"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" validate:"gte=0"`
}

// CacheConfig selects and tunes the markup and preview cache.
type CacheConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=none memory file redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
	// Dir is used by the file backend. Empty means the per-user cache directory.
	Dir     string        `mapstructure:"dir"`
	LockTTL time.Duration `mapstructure:"lock_ttl" validate:"gte=0"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig is used when the cache backend is redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0,max=15"`
	Prefix   string `mapstructure:"prefix"`
}

// ServerConfig configures the HTTP and MCP servers.
type ServerConfig struct {
	Port        int           `mapstructure:"port" validate:"min=1,max=65535"`
	SearchLimit int           `mapstructure:"search_limit" validate:"min=1,max=50"`
	SessionIdle time.Duration `mapstructure:"session_idle" validate:"gte=0"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"WIKISOPHY_TARGET":         "journey.target",
	"WIKISOPHY_MAX_STEPS":      "journey.max_steps",
	"WIKISOPHY_LANGUAGE":       "wikipedia.language",
	"WIKISOPHY_BASE_URL":       "wikipedia.base_url",
	"WIKISOPHY_SOURCE_MODE":    "wikipedia.mode",
	"WIKISOPHY_USER_AGENT":     "wikipedia.user_agent",
	"WIKISOPHY_HTTP_TIMEOUT":   "wikipedia.timeout",
	"WIKISOPHY_RETRIES":        "wikipedia.retries",
	"WIKISOPHY_RETRY_BACKOFF":  "wikipedia.retry_backoff",
	"WIKISOPHY_CACHE_BACKEND":  "cache.backend",
	"WIKISOPHY_CACHE_TTL":      "cache.ttl",
	"WIKISOPHY_CACHE_LOCK_TTL": "cache.lock_ttl",
	"WIKISOPHY_CACHE_DIR":      "cache.dir",
	"WIKISOPHY_REDIS_ADDR":     "cache.redis.addr",
	"WIKISOPHY_REDIS_PASSWORD": "cache.redis.password",
	"WIKISOPHY_REDIS_DB":       "cache.redis.db",
	"WIKISOPHY_REDIS_PREFIX":   "cache.redis.prefix",
	"WIKISOPHY_PORT":           "server.port",
	"WIKISOPHY_SEARCH_LIMIT":   "server.search_limit",
	"WIKISOPHY_SESSION_IDLE":   "server.session_idle",
	"WIKISOPHY_LOG_LEVEL":      "log.level",
	"WIKISOPHY_LOG_FORMAT":     "log.format",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Journey: JourneyConfig{
			Target:   domain.DefaultTarget,
			MaxSteps: domain.DefaultMaxSteps,
		},
		Wikipedia: WikipediaConfig{
			Language:     "en",
			Mode:         "parse",
			UserAgent:    "Wikisophy/2.0 (Educational)",
			Timeout:      10 * time.Second,
			Retries:      2,
			RetryBackoff: 500 * time.Millisecond,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     time.Hour,
			LockTTL: 10 * time.Second,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "wikisophy:cache:",
			},
		},
		Server: ServerConfig{
			Port:        8080,
			SearchLimit: domain.DefaultSearchLimit,
			SessionIdle: 30 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}
	applyEnv(raw, os.LookupEnv)

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", field, fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		return errors.New("invalid configuration: cache.redis.addr is required for the redis backend")
	}
	return nil
}

// NewLogger builds the application logger described by c.
func (c LogConfig) NewLogger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(os.Stderr, level, c.Format), nil
}

func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	return nil
}

// applyEnv overlays environment values onto the nested raw map.
func applyEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for env, key := range envKeys {
		val, ok := lookup(env)
		if !ok || val == "" {
			continue
		}
		parts := strings.Split(key, ".")
		node := raw
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = val
	}
}

func loadEnvFiles() error {
	if envFile := os.Getenv("WIKISOPHY_ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
