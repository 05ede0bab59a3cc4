package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings shared by postboard and postd.
type Config struct {
	APIURL          string
	LogFile         string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
	Server          Server
}

// Server configures postd.
type Server struct {
	Listen string
	Driver string
	DSN    string
}

// Storage drivers understood by postd.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	defaultConfigPath      = "~/.config/postboard/config.toml"
	defaultLogFile         = "~/.local/state/postboard/postboard.log"
	defaultAPIURL          = "127.0.0.1:7480"
	defaultListen          = "127.0.0.1:7480"
	defaultSQLitePath      = "~/.local/share/postboard/posts.db"
	defaultRefreshInterval = 30 * time.Second
	defaultRequestTimeout  = 10 * time.Second
)

type rawConfig struct {
	APIURL         string `toml:"api_url"`
	LogFile        string `toml:"log_file"`
	RefreshSeconds *int   `toml:"refresh_seconds"`
	RequestTimeout string `toml:"request_timeout"`
	Server         struct {
		Listen string `toml:"listen"`
		Driver string `toml:"driver"`
		DSN    string `toml:"dsn"`
	} `toml:"server"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		LogFile:         mustExpand(defaultLogFile),
		RefreshInterval: defaultRefreshInterval,
		RequestTimeout:  defaultRequestTimeout,
		Server: Server{
			Listen: defaultListen,
			Driver: DriverSQLite,
		},
	}
}

// Load reads the config at path (or the default location), falling back to
// defaults when the file is missing. Environment overrides apply last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
	} else {
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var raw rawConfig
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.merge(raw); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) merge(raw rawConfig) error {
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if raw.RefreshSeconds != nil {
		if *raw.RefreshSeconds < 0 {
			return fmt.Errorf("refresh_seconds must not be negative")
		}
		c.RefreshInterval = time.Duration(*raw.RefreshSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := strings.TrimSpace(raw.Server.Listen); v != "" {
		c.Server.Listen = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Server.Driver)); v != "" {
		c.Server.Driver = v
	}
	if v := strings.TrimSpace(raw.Server.DSN); v != "" {
		c.Server.DSN = v
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("POSTBOARD_API_URL")); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("POSTD_LISTEN")); v != "" {
		c.Server.Listen = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("POSTD_DRIVER"))); v != "" {
		c.Server.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("POSTD_DSN")); v != "" {
		c.Server.DSN = v
	}
}

// Validate reports settings the binaries cannot run with.
func (c Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	switch c.Server.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Server.DSN) == "" {
			return fmt.Errorf("server.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown server.driver %q", c.Server.Driver)
	}
	return nil
}

// SQLitePath returns the database file for the sqlite driver, expanding ~.
func (c Config) SQLitePath() string {
	dsn := strings.TrimSpace(c.Server.DSN)
	if dsn == "" {
		return mustExpand(defaultSQLitePath)
	}
	if dsn == ":memory:" {
		return dsn
	}
	return mustExpand(dsn)
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
