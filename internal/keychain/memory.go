package keychain

import (
	"bytes"
	"cmp"
	"slices"
	"sync"
)

type memoryKey struct {
	group   string
	service string
	account string
}

func (k memoryKey) matches(q Query) bool {
	if v, ok := q.Account(); ok && v != k.account {
		return false
	}
	if v, ok := q.Service(); ok && v != k.service {
		return false
	}
	if v, ok := q.AccessGroup(); ok && v != k.group {
		return false
	}
	return true
}

type memoryItem struct {
	accessible Accessibility
	data       []byte
}

// MemoryBackend is an in-memory Backend for tests and platforms without a
// system keychain. Secrets do not persist across restarts.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[memoryKey]memoryItem
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[memoryKey]memoryItem)}
}

func (b *MemoryBackend) Add(q Query) Status {
	if q.Class() != ClassGenericPassword {
		return StatusParam
	}
	account, ok := q.Account()
	if !ok {
		return StatusParam
	}
	data, ok := q.Data()
	if !ok {
		return StatusParam
	}
	group, _ := q.AccessGroup()
	service, _ := q.Service()
	accessible, _ := q.Accessible()

	b.mu.Lock()
	defer b.mu.Unlock()
	key := memoryKey{group: group, service: service, account: account}
	if _, exists := b.items[key]; exists {
		return StatusDuplicateItem
	}
	b.items[key] = memoryItem{accessible: accessible, data: bytes.Clone(data)}
	return StatusSuccess
}

func (b *MemoryBackend) CopyMatching(q Query) (Status, []Item) {
	if q.Class() != ClassGenericPassword {
		return StatusParam, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := b.matching(q)
	if len(keys) == 0 {
		return StatusItemNotFound, nil
	}
	if q.MatchLimit() == MatchLimitOne {
		keys = keys[:1]
	}

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		var item Item
		stored := b.items[k]
		if q.ReturnAttributes() {
			item.Account = k.account
			item.Service = k.service
			item.AccessGroup = k.group
			item.Accessible = stored.accessible
		}
		if q.ReturnData() {
			item.Data = bytes.Clone(stored.data)
		}
		items = append(items, item)
	}
	return StatusSuccess, items
}

func (b *MemoryBackend) Delete(q Query) Status {
	if q.Class() != ClassGenericPassword {
		return StatusParam
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	keys := b.matching(q)
	if len(keys) == 0 {
		return StatusItemNotFound
	}
	for _, k := range keys {
		delete(b.items, k)
	}
	return StatusSuccess
}

// Len returns the number of stored items across all scopes.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// matching returns the keys matching q in a stable order. Callers hold mu.
func (b *MemoryBackend) matching(q Query) []memoryKey {
	var keys []memoryKey
	for k := range b.items {
		if k.matches(q) {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(x, y memoryKey) int {
		if c := cmp.Compare(x.group, y.group); c != 0 {
			return c
		}
		if c := cmp.Compare(x.service, y.service); c != 0 {
			return c
		}
		return cmp.Compare(x.account, y.account)
	})
	return keys
}
