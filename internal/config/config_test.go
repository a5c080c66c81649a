package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benaskins/credstore/internal/keychain"
)

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `backend: keyring
service: myapp
access_group: team.myapp
accessibility: after_first_unlock
codec: yaml
audit_log: /tmp/credstore/audit.log
keyring:
  allowed_backends: [secret-service, file]
  file_dir: /tmp/credstore/keyring
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend != BackendKeyring {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendKeyring)
	}
	if cfg.Service != "myapp" {
		t.Errorf("Service = %q, want %q", cfg.Service, "myapp")
	}
	if cfg.AccessGroup != "team.myapp" {
		t.Errorf("AccessGroup = %q, want %q", cfg.AccessGroup, "team.myapp")
	}
	if cfg.AuditLog != "/tmp/credstore/audit.log" {
		t.Errorf("AuditLog = %q", cfg.AuditLog)
	}
	if len(cfg.Keyring.AllowedBackends) != 2 || cfg.Keyring.AllowedBackends[1] != "file" {
		t.Errorf("Keyring.AllowedBackends = %v", cfg.Keyring.AllowedBackends)
	}
	if cfg.Keyring.FileDir != "/tmp/credstore/keyring" {
		t.Errorf("Keyring.FileDir = %q", cfg.Keyring.FileDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	level, err := cfg.AccessibilityLevel()
	if err != nil {
		t.Fatalf("AccessibilityLevel: %v", err)
	}
	if level != keychain.AccessibleAfterFirstUnlock {
		t.Errorf("AccessibilityLevel = %q", level)
	}

	sc, err := cfg.StoreConfig()
	if err != nil {
		t.Fatalf("StoreConfig: %v", err)
	}
	if _, ok := sc.Codec.(keychain.YAMLCodec); !ok {
		t.Errorf("Codec = %T, want YAMLCodec", sc.Codec)
	}
	if sc.AccessGroup != "team.myapp" || sc.Service != "myapp" {
		t.Errorf("StoreConfig scope = %q/%q", sc.Service, sc.AccessGroup)
	}
}

func assertDefaults(t *testing.T, cfg *Config) {
	t.Helper()
	if cfg.Backend != BackendKeychain {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendKeychain)
	}
	if cfg.Service != "credstore" {
		t.Errorf("Service = %q, want credstore", cfg.Service)
	}
	if cfg.AccessGroup != "" {
		t.Errorf("AccessGroup = %q, want empty", cfg.AccessGroup)
	}
	if cfg.Accessibility != "when_unlocked" {
		t.Errorf("Accessibility = %q, want when_unlocked", cfg.Accessibility)
	}
	if cfg.Codec != "json" {
		t.Errorf("Codec = %q, want json", cfg.Codec)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	assertDefaults(t, cfg)
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDefaults(t, cfg)
}

func TestLoadPartialConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `access_group: team.partial
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AccessGroup != "team.partial" {
		t.Errorf("AccessGroup = %q, want %q", cfg.AccessGroup, "team.partial")
	}
	if cfg.Backend != BackendKeychain {
		t.Errorf("Backend = %q, want default", cfg.Backend)
	}
}

func TestLoadCommentsOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `# backend: keyring
# access_group: team.commented
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDefaults(t, cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("backend: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"backend", func(c *Config) { c.Backend = "vault" }},
		{"accessibility", func(c *Config) { c.Accessibility = "always" }},
		{"codec", func(c *Config) { c.Codec = "gob" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected error for bad %s", tt.name)
			}
		})
	}
}
