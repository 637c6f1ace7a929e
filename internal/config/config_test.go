package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", cfg.Server.RequestTimeout)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  request_timeout: 5s
log:
  level: debug
pipeline:
  response_headers:
    Server: strata
  webhooks:
    - name: audit
      url: http://localhost:9000/audit
      order: 50
      on_error: continue
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Server.RequestTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected format default preserved, got %q", cfg.Log.Format)
	}
	if cfg.Pipeline.ResponseHeaders["Server"] != "strata" {
		t.Errorf("response headers not loaded: %+v", cfg.Pipeline.ResponseHeaders)
	}
	if len(cfg.Pipeline.Webhooks) != 1 || cfg.Pipeline.Webhooks[0].Name != "audit" {
		t.Errorf("webhooks not loaded: %+v", cfg.Pipeline.Webhooks)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("STRATA_SERVER__PORT", "7070")
	t.Setenv("STRATA_LOG__LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected env level warn, got %q", cfg.Log.Level)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	path := writeConfig(t, "server:\n  port: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestLoad_WebhookMissingURL(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  webhooks:
    - name: audit
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected defaults, got port %d", cfg.Server.Port)
	}
}
