// Package config loads folio settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/habedi/folio/pkg/validation"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog/log"
)

// Session store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	APIURL      string        `yaml:"api_url" env:"FOLIO_API_URL" env-default:"http://localhost:8000" validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout" env:"FOLIO_TIMEOUT" env-default:"30s" validate:"gt=0"`
	MetricsFile string        `yaml:"metrics_file" env:"FOLIO_METRICS_FILE"`
	Session     SessionConfig `yaml:"session"`
	Redis       RedisConfig   `yaml:"redis"`

	// Home is the data directory. It is resolved, not read.
	Home string `yaml:"-"`
}

type SessionConfig struct {
	Backend    string        `yaml:"backend" env:"FOLIO_SESSION_BACKEND" env-default:"sqlite" validate:"oneof=sqlite redis memory"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"FOLIO_ACCESS_TTL" env-default:"15m" validate:"gt=0"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"FOLIO_REFRESH_TTL" env-default:"168h" validate:"gt=0"`
	// Path of the SQLite file; defaults to session.db in Home.
	Path string `yaml:"path" env:"FOLIO_SESSION_PATH"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"FOLIO_REDIS_ADDR" env-default:"localhost:6379" validate:"required"`
	Password string `yaml:"password" env:"FOLIO_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"FOLIO_REDIS_DB" env-default:"0" validate:"gte=0"`
	Prefix   string `yaml:"prefix" env:"FOLIO_REDIS_PREFIX" env-default:"folio:session:"`
}

// HomeDir resolves the data directory: $FOLIO_HOME, then $XDG_DATA_HOME/folio, then ~/.folio.
func HomeDir() (string, error) {
	if h := os.Getenv("FOLIO_HOME"); h != "" {
		return h, nil
	}
	if x := os.Getenv("XDG_DATA_HOME"); x != "" {
		return filepath.Join(x, "folio"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".folio"), nil
}

// Load reads the config file at path (or $FOLIO_CONFIG, or config.yml in the data
// directory when it exists), applies environment overrides and validates the result.
// An explicitly named file must exist.
func Load(path string) (*Config, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv("FOLIO_CONFIG")
	}
	if path == "" {
		candidate := filepath.Join(home, "config.yml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if path != "" {
		log.Debug().Str("path", path).Msg("Reading config file")
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	cfg.Home = home
	if cfg.Session.Path == "" {
		cfg.Session.Path = filepath.Join(home, "session.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return fmt.Errorf("invalid config: %w", err)
		}
		return err
	}
	return nil
}

// Usage describes every environment variable, for help output.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
