package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/benaskins/credstore/internal/keychain"
)

// Backend names accepted in the config file.
const (
	BackendKeychain = "keychain"
	BackendKeyring  = "keyring"
	BackendMemory   = "memory"
)

// Config holds persistent settings loaded from ~/.credstore/config.yaml.
type Config struct {
	Backend       string        `yaml:"backend"`
	Service       string        `yaml:"service"`
	AccessGroup   string        `yaml:"access_group"`
	Accessibility string        `yaml:"accessibility"`
	Codec         string        `yaml:"codec"`
	AuditLog      string        `yaml:"audit_log"`
	DisableAudit  bool          `yaml:"disable_audit"`
	Keyring       KeyringConfig `yaml:"keyring"`
}

// KeyringConfig tunes the cross-platform keyring backend.
type KeyringConfig struct {
	AllowedBackends []string `yaml:"allowed_backends"`
	FileDir         string   `yaml:"file_dir"`
}

// Home returns the credstore home directory: ~/.credstore.
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".credstore")
}

// DefaultPath returns the default config file path: ~/.credstore/config.yaml.
func DefaultPath() string {
	home := Home()
	if home == "" {
		return ""
	}
	return filepath.Join(home, "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns the default Config and no error. An empty or all-comment file
// also returns the defaults with no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendKeychain
	}
	if c.Service == "" {
		c.Service = "credstore"
	}
	if c.Accessibility == "" {
		c.Accessibility = "when_unlocked"
	}
	if c.Codec == "" {
		c.Codec = "json"
	}
	if c.AuditLog == "" {
		if home := Home(); home != "" {
			c.AuditLog = filepath.Join(home, "audit.log")
		}
	}
}

// Validate reports the first unsupported value in the config.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendKeychain, BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := keychain.ParseAccessibility(c.Accessibility); err != nil {
		return err
	}
	if _, err := keychain.CodecByName(c.Codec); err != nil {
		return err
	}
	return nil
}

// AccessibilityLevel returns the parsed default accessibility.
func (c *Config) AccessibilityLevel() (keychain.Accessibility, error) {
	return keychain.ParseAccessibility(c.Accessibility)
}

// StoreConfig returns the keychain.Config described by c.
func (c *Config) StoreConfig() (keychain.Config, error) {
	codec, err := keychain.CodecByName(c.Codec)
	if err != nil {
		return keychain.Config{}, err
	}
	return keychain.Config{
		Service:     c.Service,
		AccessGroup: c.AccessGroup,
		Codec:       codec,
	}, nil
}
