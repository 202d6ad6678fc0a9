// Package config loads critpath configuration using koanf.
// Priority: environment variables (CRITPATH_) > config file > defaults.
// Nested keys use a double underscore in the environment, e.g.
// CRITPATH_LOG__LEVEL=debug sets log.level.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/joshharrison/critpath/internal/logging"
)

const (
	// DefaultPath is the project-local config file picked up when no
	// explicit path is given.
	DefaultPath = "critpath.yaml"
	envPrefix   = "CRITPATH_"
)

// Config is the critpath configuration.
type Config struct {
	Log    logging.Config `koanf:"log"`
	Strict bool           `koanf:"strict"` // reject dangling references, duplicate ids, negative durations
	Color  bool           `koanf:"color"`
	Format string         `koanf:"format"` // table or json
	Serve  ServeConfig    `koanf:"serve"`
}

// ServeConfig configures the HTTP service.
type ServeConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// Defaults returns the built-in configuration values keyed by koanf path.
func Defaults() map[string]any {
	return map[string]any{
		"log.level":              "warn",
		"log.format":             "text",
		"log.output":             "stderr",
		"strict":                 false,
		"color":                  true,
		"format":                 "table",
		"serve.addr":             ":8080",
		"serve.shutdown_timeout": "5s",
		"serve.max_body_bytes":   int64(1 << 20),
	}
}

// Load reads configuration from defaults, the config file at path (or
// DefaultPath when path is empty and that file exists) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path == "" && fileExists(DefaultPath) {
		path = DefaultPath
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	return nil
}

// Validate checks field values after loading.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if !slices.Contains([]string{"table", "json"}, c.Format) {
		return fmt.Errorf("format must be table or json, got %q", c.Format)
	}
	if c.Serve.Addr == "" {
		return fmt.Errorf("serve.addr must not be empty")
	}
	if c.Serve.ShutdownTimeout < 0 {
		return fmt.Errorf("serve.shutdown_timeout must not be negative")
	}
	if c.Serve.MaxBodyBytes <= 0 {
		return fmt.Errorf("serve.max_body_bytes must be positive")
	}
	return nil
}

// envTransform maps CRITPATH_SERVE__ADDR to serve.addr.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
