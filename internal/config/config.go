// Package config loads server configuration from a YAML file and
// STRATA_-prefixed environment variables, env taking precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Storage  StorageConfig  `koanf:"storage"`
	Auth     AuthConfig     `koanf:"auth"`
	Pipeline PipelineConfig `koanf:"pipeline"`
}

// ServerConfig configures the HTTP binding.
type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or text
}

// StorageConfig configures the traversal store.
type StorageConfig struct {
	Path string `koanf:"path"`
}

// AuthConfig configures the API key stage. An empty key set disables it.
type AuthConfig struct {
	Keys map[string]string `koanf:"keys"` // principal -> key
}

// PipelineConfig configures the built-in stages.
type PipelineConfig struct {
	ResponseHeaders map[string]string `koanf:"response_headers"`
	Webhooks        []WebhookConfig   `koanf:"webhooks"`
}

// WebhookConfig configures one external webhook stage.
type WebhookConfig struct {
	Name    string            `koanf:"name"`
	URL     string            `koanf:"url"`
	Order   int               `koanf:"order"`
	Timeout time.Duration     `koanf:"timeout"`
	OnError string            `koanf:"on_error"` // "continue" to fail open
	Retries int               `koanf:"retries"`
	Headers map[string]string `koanf:"headers"`
}

// Load reads configuration, layering defaults, the YAML file at path (when
// it exists) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"server.port":            8080,
		"server.request_timeout": "30s",
		"log.level":              "info",
		"log.format":             "json",
		"storage.path":           "./data/strata.db",
	}
	for key, v := range defaults {
		k.Set(key, v)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// Double underscore separates levels so keys like request_timeout
	// survive: STRATA_SERVER__REQUEST_TIMEOUT -> server.request_timeout.
	if err := k.Load(env.Provider("STRATA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STRATA_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	for _, wh := range c.Pipeline.Webhooks {
		if wh.Name == "" || wh.URL == "" {
			return fmt.Errorf("webhook stages need both name and url")
		}
	}
	return nil
}
