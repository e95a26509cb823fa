package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configSection is one top-level key of the generated file.
type configSection struct {
	key     string
	comment string
	value   any
}

// InitConfig writes the default configuration to GetDefaultConfigPath.
//
// Returns the path written. An existing file is only replaced when force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the default configuration to path, creating parent
// directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg section by section, each preceded by a
// short comment block.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []configSection{
		{"logging", "Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json), output (stdout, stderr, file path)", cfg.Logging},
		{"server", "Server-wide settings. metrics enables the admin server (/metrics, /healthz, /routes)", cfg.Server},
		{"adapters", "Protocol adapters. Timeouts of 0 mean no deadline", cfg.Adapters},
		{"pool", "Worker pool. queue_size 0 is unbounded; saturation_policy (reject, block, grow) applies when bounded", cfg.Pool},
		{"statics", "Static files. serve tries the request path as a file before routing.\nstore.type: filesystem, memory or s3", cfg.Statics},
		{"users", "Users store behind the users handlers. type: memory or badger (badger.db_path)", cfg.Users},
		{"fetch", "Outbound fetch handler. requests_per_second 0 is unlimited; empty allowed_hosts allows any host", cfg.Fetch},
		{"routes", "Route tree, matched in order. Each entry is a stack (with children) or an endpoint\nwith exactly one of file, handler (params, headers, users.list, users.insert, fetch) or unmatched", cfg.Routes},
	}

	var b strings.Builder
	b.WriteString("# DittoWeb Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Every key can be overridden with an environment variable:\n")
	b.WriteString("# DITTOWEB_<SECTION>_<KEY>, e.g. DITTOWEB_LOGGING_LEVEL=DEBUG\n")

	for _, s := range sections {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{s.key: s.value}); err != nil {
			return "", fmt.Errorf("failed to render %s section: %w", s.key, err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("failed to render %s section: %w", s.key, err)
		}

		b.WriteString("\n")
		for _, line := range strings.Split(s.comment, "\n") {
			b.WriteString("# " + line + "\n")
		}
		b.Write(buf.Bytes())
	}

	return b.String(), nil
}
