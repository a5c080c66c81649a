//go:build darwin

package keychain

import (
	"errors"
	"fmt"
	"log/slog"

	gokeychain "github.com/keybase/go-keychain"
)

var accessibleLevels = map[Accessibility]gokeychain.Accessible{
	AccessibleWhenUnlocked:                   gokeychain.AccessibleWhenUnlocked,
	AccessibleAfterFirstUnlock:               gokeychain.AccessibleAfterFirstUnlock,
	AccessibleWhenUnlockedThisDeviceOnly:     gokeychain.AccessibleWhenUnlockedThisDeviceOnly,
	AccessibleAfterFirstUnlockThisDeviceOnly: gokeychain.AccessibleAfterFirstUnlockThisDeviceOnly,
	AccessibleWhenPasscodeSetThisDeviceOnly:  gokeychain.AccessibleWhenPasscodeSetThisDeviceOnly,
}

// SystemBackend passes queries to the macOS Keychain.
type SystemBackend struct {
	logger *slog.Logger
}

// NewSystemBackend creates a Keychain-backed backend.
func NewSystemBackend() *SystemBackend {
	return &SystemBackend{logger: slog.With("component", "keychain-system")}
}

func (b *SystemBackend) Add(q Query) Status {
	item := toKeychainItem(q)
	item.SetSynchronizable(gokeychain.SynchronizableNo)
	if account, ok := q.Account(); ok {
		item.SetLabel(label(q, account))
	}
	return b.statusOf("add", gokeychain.AddItem(item))
}

func (b *SystemBackend) CopyMatching(q Query) (Status, []Item) {
	results, err := gokeychain.QueryItem(toKeychainItem(q))
	if status := b.statusOf("copy matching", err); status != StatusSuccess {
		return status, nil
	}
	if len(results) == 0 {
		return StatusItemNotFound, nil
	}

	items := make([]Item, 0, len(results))
	for _, r := range results {
		items = append(items, Item{
			Account:     r.Account,
			Service:     r.Service,
			AccessGroup: r.AccessGroup,
			Data:        r.Data,
		})
	}
	return StatusSuccess, items
}

func (b *SystemBackend) Delete(q Query) Status {
	return b.statusOf("delete", gokeychain.DeleteItem(toKeychainItem(q)))
}

func (b *SystemBackend) statusOf(op string, err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var kerr gokeychain.Error
	if errors.As(err, &kerr) {
		return Status(kerr)
	}
	b.logger.Warn("keychain call failed", "op", op, "error", err)
	return StatusInternal
}

func toKeychainItem(q Query) gokeychain.Item {
	item := gokeychain.NewItem()
	item.SetSecClass(gokeychain.SecClassGenericPassword)
	if v, ok := q.Account(); ok {
		item.SetAccount(v)
	}
	if v, ok := q.Service(); ok {
		item.SetService(v)
	}
	if v, ok := q.AccessGroup(); ok {
		item.SetAccessGroup(v)
	}
	if v, ok := q.Accessible(); ok {
		item.SetAccessible(accessibleLevels[v])
	}
	if v, ok := q.Data(); ok {
		item.SetData(v)
	}
	if q.ReturnData() {
		item.SetReturnData(true)
	}
	if q.ReturnAttributes() {
		item.SetReturnAttributes(true)
	}
	if _, ok := q[AttrMatchLimit]; ok {
		if q.MatchLimit() == MatchLimitAll {
			item.SetMatchLimit(gokeychain.MatchLimitAll)
		} else {
			item.SetMatchLimit(gokeychain.MatchLimitOne)
		}
	}
	return item
}

// label is shown in Keychain Access.app.
func label(q Query, account string) string {
	if service, ok := q.Service(); ok {
		return fmt.Sprintf("%s: %s", service, account)
	}
	return account
}
