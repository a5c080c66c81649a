package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/benaskins/credstore/internal/audit"
	"github.com/benaskins/credstore/internal/config"
	"github.com/benaskins/credstore/internal/keychain"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("service") {
		cfg.Service, _ = flags.GetString("service")
	}
	if flags.Changed("group") {
		cfg.AccessGroup, _ = flags.GetString("group")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newBackend is replaced in tests to share one backend across commands.
var newBackend = defaultBackend

func defaultBackend(cfg *config.Config) keychain.Backend {
	switch cfg.Backend {
	case config.BackendKeyring:
		return keychain.NewKeyringBackend(keychain.KeyringConfig{
			AllowedBackends: cfg.Keyring.AllowedBackends,
			FileDir:         cfg.Keyring.FileDir,
			FilePassword:    os.Getenv("CREDSTORE_FILE_PASSWORD"),
		})
	case config.BackendMemory:
		return keychain.NewMemoryBackend()
	default:
		if runtime.GOOS != "darwin" {
			slog.Warn("macOS Keychain unavailable, secrets are kept in memory for this process only; set backend: keyring to persist them",
				"os", runtime.GOOS)
		}
		return keychain.NewSystemBackend()
	}
}

// openStore builds the store described by the config. The returned func
// closes the audit log and must be called when the command is done.
func openStore(cmd *cobra.Command) (*keychain.Store, *config.Config, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	backend := newBackend(cfg)
	closeFn := func() {}

	if !cfg.DisableAudit && cfg.AuditLog != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.AuditLog), 0700); err != nil {
			return nil, nil, nil, fmt.Errorf("creating audit dir: %w", err)
		}
		auditLog, err := audit.NewLogger(cfg.AuditLog)
		if err != nil {
			return nil, nil, nil, err
		}
		backend = keychain.NewAuditedBackend(backend, auditLog, "cli")
		closeFn = func() { auditLog.Close() }
	}

	storeCfg, err := cfg.StoreConfig()
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	storeCfg.Logger = slog.Default()

	slog.Debug("opened credential store",
		"backend", cfg.Backend, "service", cfg.Service, "group", cfg.AccessGroup)
	return keychain.NewStore(backend, storeCfg), cfg, closeFn, nil
}
