package keychain

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"slices"
	"sync"

	"github.com/99designs/keyring"
	"github.com/adrg/xdg"
)

// DefaultKeyringService names the keyring used by unscoped queries.
const DefaultKeyringService = "credstore"

// KeyringConfig configures a KeyringBackend.
type KeyringConfig struct {
	// AllowedBackends restricts the keyring implementations, e.g.
	// "secret-service", "kwallet", "pass", "file". Empty allows all.
	AllowedBackends []string
	// FileDir holds the encrypted file keyring. Defaults to
	// $XDG_DATA_HOME/credstore/keyring.
	FileDir string
	// FilePassword unlocks the file keyring. Empty prompts on the terminal.
	FilePassword string
}

// KeyringBackend emulates the keychain query protocol on top of the
// cross-platform keyrings supported by github.com/99designs/keyring.
// Each (service, access group) pair maps to its own keyring named
// "service/group", opened on first use.
type KeyringBackend struct {
	cfg    KeyringConfig
	open   func(keyring.Config) (keyring.Keyring, error)
	logger *slog.Logger

	mu    sync.Mutex
	rings map[string]keyring.Keyring
}

// NewKeyringBackend creates a backend over the platform keyrings.
func NewKeyringBackend(cfg KeyringConfig) *KeyringBackend {
	if cfg.FileDir == "" {
		cfg.FileDir = filepath.Join(xdg.DataHome, "credstore", "keyring")
	}
	return &KeyringBackend{
		cfg:    cfg,
		open:   keyring.Open,
		logger: slog.With("component", "keychain-keyring"),
		rings:  make(map[string]keyring.Keyring),
	}
}

func (b *KeyringBackend) Add(q Query) Status {
	account, ok := q.Account()
	if !ok || q.Class() != ClassGenericPassword {
		return StatusParam
	}
	data, ok := q.Data()
	if !ok {
		return StatusParam
	}
	ring, name, err := b.ring(q)
	if err != nil {
		return b.statusOf("open", err)
	}

	if _, err := ring.Get(account); err == nil {
		return StatusDuplicateItem
	} else if !errors.Is(err, keyring.ErrKeyNotFound) {
		return b.statusOf("get", err)
	}

	accessible, _ := q.Accessible()
	err = ring.Set(keyring.Item{
		Key:         account,
		Data:        data,
		Label:       fmt.Sprintf("%s: %s", name, account),
		Description: accessible.String(),
	})
	return b.statusOf("set", err)
}

func (b *KeyringBackend) CopyMatching(q Query) (Status, []Item) {
	if q.Class() != ClassGenericPassword {
		return StatusParam, nil
	}
	ring, _, err := b.ring(q)
	if err != nil {
		return b.statusOf("open", err), nil
	}

	var keys []string
	if account, ok := q.Account(); ok {
		keys = []string{account}
	} else {
		keys, err = ring.Keys()
		if err != nil {
			return b.statusOf("keys", err), nil
		}
		slices.Sort(keys)
	}

	service, _ := q.Service()
	group, _ := q.AccessGroup()
	var items []Item
	for _, key := range keys {
		stored, err := ring.Get(key)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return b.statusOf("get", err), nil
		}

		var item Item
		if q.ReturnAttributes() {
			item.Account = stored.Key
			item.Service = service
			item.AccessGroup = group
			if a, err := ParseAccessibility(stored.Description); err == nil {
				item.Accessible = a
			}
		}
		if q.ReturnData() {
			item.Data = stored.Data
		}
		items = append(items, item)
		if q.MatchLimit() == MatchLimitOne {
			break
		}
	}
	if len(items) == 0 {
		return StatusItemNotFound, nil
	}
	return StatusSuccess, items
}

func (b *KeyringBackend) Delete(q Query) Status {
	if q.Class() != ClassGenericPassword {
		return StatusParam
	}
	ring, _, err := b.ring(q)
	if err != nil {
		return b.statusOf("open", err)
	}

	var keys []string
	if account, ok := q.Account(); ok {
		// Some keyrings treat removing a missing key as success.
		if _, err := ring.Get(account); err != nil {
			return b.statusOf("get", err)
		}
		keys = []string{account}
	} else {
		keys, err = ring.Keys()
		if err != nil {
			return b.statusOf("keys", err)
		}
	}
	if len(keys) == 0 {
		return StatusItemNotFound
	}
	for _, key := range keys {
		if err := ring.Remove(key); err != nil {
			return b.statusOf("remove", err)
		}
	}
	return StatusSuccess
}

// ring returns the keyring for the query's namespace, opening it if needed.
func (b *KeyringBackend) ring(q Query) (keyring.Keyring, string, error) {
	name := DefaultKeyringService
	if service, ok := q.Service(); ok && service != "" {
		name = url.PathEscape(service)
	}
	// Both parts are escaped so "/" only ever appears as the separator.
	if group, ok := q.AccessGroup(); ok && group != "" {
		name = name + "/" + url.PathEscape(group)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if ring, ok := b.rings[name]; ok {
		return ring, name, nil
	}

	cfg := keyring.Config{
		ServiceName:                    name,
		KeychainTrustApplication:       true,
		KeychainAccessibleWhenUnlocked: true,
		LibSecretCollectionName:        name,
		KWalletAppID:                   name,
		KWalletFolder:                  name,
		FileDir:                        filepath.Join(b.cfg.FileDir, name),
		FilePasswordFunc:               keyring.TerminalPrompt,
	}
	if b.cfg.FilePassword != "" {
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(b.cfg.FilePassword)
	}
	for _, backend := range b.cfg.AllowedBackends {
		cfg.AllowedBackends = append(cfg.AllowedBackends, keyring.BackendType(backend))
	}

	ring, err := b.open(cfg)
	if err != nil {
		return nil, name, fmt.Errorf("opening keyring %q: %w", name, err)
	}
	b.rings[name] = ring
	return ring, name, nil
}

func (b *KeyringBackend) statusOf(op string, err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, keyring.ErrKeyNotFound):
		return StatusItemNotFound
	default:
		b.logger.Warn("keyring call failed", "op", op, "error", err)
		return StatusInternal
	}
}
