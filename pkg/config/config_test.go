package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"

statics:
  store:
    type: "memory"

adapters:
  http:
    enabled: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Adapters.HTTP.Port != 8081 {
		t.Errorf("Expected default HTTP port 8081, got %d", cfg.Adapters.HTTP.Port)
	}
	if cfg.Adapters.HTTP.Host != "127.0.0.1" {
		t.Errorf("Expected default host 127.0.0.1, got %q", cfg.Adapters.HTTP.Host)
	}
	if cfg.Adapters.HTTP.ReadTimeout != 0 {
		t.Errorf("Expected no read timeout by default, got %v", cfg.Adapters.HTTP.ReadTimeout)
	}
	if cfg.Pool.Workers != 10 {
		t.Errorf("Expected 10 workers, got %d", cfg.Pool.Workers)
	}
	if !cfg.Statics.Serve {
		t.Error("Expected statics.serve to default to true")
	}
	if cfg.Statics.Custom404 != "404.html" {
		t.Errorf("Expected custom_404 '404.html', got %q", cfg.Statics.Custom404)
	}
	if len(cfg.Routes) != len(DefaultRoutes()) {
		t.Errorf("Expected the default routes, got %d entries", len(cfg.Routes))
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Statics.Store.Type != "filesystem" {
		t.Errorf("Expected default static store 'filesystem', got %q", cfg.Statics.Store.Type)
	}
	if cfg.Statics.Store.Filesystem["path"] != "./static" {
		t.Errorf("Expected default static path './static', got %v", cfg.Statics.Store.Filesystem["path"])
	}
	if !cfg.Adapters.HTTP.Enabled {
		t.Error("Expected HTTP adapter enabled without a config file")
	}
	if cfg.Users.Type != "memory" {
		t.Errorf("Expected default users store 'memory', got %q", cfg.Users.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "logging:\n  level: [unclosed\n")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoad_ValidationError(t *testing.T) {
	configPath := writeConfig(t, `
pool:
  saturation_policy: drop
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown saturation policy")
	}
}

func TestLoad_ExplicitFalseSurvives(t *testing.T) {
	configPath := writeConfig(t, `
statics:
  serve: false
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Statics.Serve {
		t.Error("Expected statics.serve: false to survive defaults")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: INFO
adapters:
  http:
    port: 8081
`)
	t.Setenv("DITTOWEB_LOGGING_LEVEL", "debug")
	t.Setenv("DITTOWEB_ADAPTERS_HTTP_PORT", "9000")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env override 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Adapters.HTTP.Port != 9000 {
		t.Errorf("Expected env override port 9000, got %d", cfg.Adapters.HTTP.Port)
	}
}

func TestLoad_Durations(t *testing.T) {
	configPath := writeConfig(t, `
adapters:
  http:
    read_timeout: 2s
    write_timeout: 1m
fetch:
  timeout: 500ms
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Adapters.HTTP.ReadTimeout != 2*time.Second {
		t.Errorf("Expected read_timeout 2s, got %v", cfg.Adapters.HTTP.ReadTimeout)
	}
	if cfg.Adapters.HTTP.WriteTimeout != time.Minute {
		t.Errorf("Expected write_timeout 1m, got %v", cfg.Adapters.HTTP.WriteTimeout)
	}
	if cfg.Fetch.Timeout != 500*time.Millisecond {
		t.Errorf("Expected fetch timeout 500ms, got %v", cfg.Fetch.Timeout)
	}
}

func TestLoad_Routes(t *testing.T) {
	configPath := writeConfig(t, `
routes:
  - endpoint: ""
    file: home.html
  - stack: /api
    children:
      - endpoint: "echo/:a/:b"
        handler: params
      - endpoint: users
        handler: users.insert
        method: post
  - endpoint: "*"
    unmatched: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Routes) != 3 {
		t.Fatalf("Expected 3 routes, got %d", len(cfg.Routes))
	}
	root := cfg.Routes[0]
	if root.Endpoint == nil || *root.Endpoint != "" || root.File != "home.html" {
		t.Errorf("Unexpected root route: %+v", root)
	}
	api := cfg.Routes[1]
	if api.Stack == nil || *api.Stack != "/api" || len(api.Children) != 2 {
		t.Fatalf("Unexpected api stack: %+v", api)
	}
	if api.Children[1].Method != "post" {
		t.Errorf("Expected method 'post', got %q", api.Children[1].Method)
	}
	if !cfg.Routes[2].Unmatched {
		t.Error("Expected unmatched fallback endpoint")
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := GetConfigDir(); got != filepath.Join("/tmp/xdg", "dittoweb") {
		t.Errorf("Expected XDG config dir, got %q", got)
	}
	if got := GetDefaultConfigPath(); got != filepath.Join("/tmp/xdg", "dittoweb", "config.yaml") {
		t.Errorf("Expected default config path under XDG, got %q", got)
	}
}
