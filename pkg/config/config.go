// Package config loads the Permitscope configuration file.
//
// Configuration is read from a TOML file, with environment variables as
// overrides for deployment settings. The default location is
// ~/.config/permitscope/config.toml; every field has a working default so
// the file is optional.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/permitscope/permitscope/pkg/errors"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the full application configuration.
type Config struct {
	Directory DirectoryConfig `toml:"directory"`
	Cache     CacheConfig     `toml:"cache"`
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
}

// DirectoryConfig configures the Access Directory Service client.
type DirectoryConfig struct {
	// BaseURL is the directory service root, e.g. "https://directory.internal".
	BaseURL string `toml:"base_url"`

	// Token is a bearer token attached to every directory request.
	Token string `toml:"token"`

	// Timeout bounds a single directory request.
	Timeout duration `toml:"timeout"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty means
	// ~/.cache/permitscope/.
	Dir string `toml:"dir"`

	// Redis holds connection settings for the redis backend.
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// StoreConfig configures the saved-view store.
type StoreConfig struct {
	// MongoURI enables the MongoDB store when set. Empty means the
	// in-memory store.
	MongoURI string `toml:"mongo_uri"`

	// Database is the MongoDB database name.
	Database string `toml:"database"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() Config {
	return Config{
		Directory: DirectoryConfig{
			BaseURL: "http://localhost:8081",
			Timeout: duration{15 * time.Second},
		},
		Cache: CacheConfig{
			Backend: CacheBackendFile,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  duration{10 * time.Second},
			WriteTimeout: duration{30 * time.Second},
		},
		Store: StoreConfig{
			Database: "permitscope",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "permitscope", "config.toml")
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. An empty path means [DefaultPath]. Environment
// overrides (PERMITSCOPE_DIRECTORY_URL, PERMITSCOPE_DIRECTORY_TOKEN,
// PERMITSCOPE_REDIS_ADDR, PERMITSCOPE_MONGO_URI) apply last.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	case os.IsNotExist(err) && !explicit:
		// Optional default file; run on defaults.
	default:
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PERMITSCOPE_DIRECTORY_URL"); v != "" {
		cfg.Directory.BaseURL = v
	}
	if v := os.Getenv("PERMITSCOPE_DIRECTORY_TOKEN"); v != "" {
		cfg.Directory.Token = v
	}
	if v := os.Getenv("PERMITSCOPE_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("PERMITSCOPE_MONGO_URI"); v != "" {
		cfg.Store.MongoURI = v
	}
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid cache backend %q (must be file, redis, or none)", c.Cache.Backend)
	}
	if c.Directory.BaseURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "directory.base_url is required")
	}
	return nil
}

// duration wraps time.Duration with TOML string decoding ("15s", "2m").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}
