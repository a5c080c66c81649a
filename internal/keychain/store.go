package keychain

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
)

// Config scopes a Store. It is copied at construction and never changes.
type Config struct {
	// Service namespaces items below the access group. Empty matches any service.
	Service string
	// AccessGroup isolates stores sharing one backend. Empty means unscoped.
	AccessGroup string
	// Codec encodes non-string values. Defaults to JSONCodec.
	Codec  Codec
	Logger *slog.Logger
}

// Store saves, reads, lists and deletes credentials through a Backend.
// It holds no mutable state and is safe for concurrent use; races between
// callers are resolved by the backend.
type Store struct {
	backend     Backend
	service     string
	accessGroup string
	codec       Codec
	logger      *slog.Logger
}

// NewStore creates a Store over backend.
func NewStore(backend Backend, cfg Config) *Store {
	codec := cfg.Codec
	if codec == nil {
		codec = JSONCodec{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:     backend,
		service:     cfg.Service,
		accessGroup: cfg.AccessGroup,
		codec:       codec,
		logger:      logger.With("component", "keychain"),
	}
}

// Service returns the configured service namespace.
func (s *Store) Service() string {
	return s.service
}

// AccessGroup returns the configured group scope.
func (s *Store) AccessGroup() string {
	return s.accessGroup
}

// baseQuery returns the class marker plus the configured scope.
func (s *Store) baseQuery() Query {
	q := Query{AttrClass: ClassGenericPassword}
	if s.service != "" {
		q[AttrService] = s.service
	}
	if s.accessGroup != "" {
		q[AttrAccessGroup] = s.accessGroup
	}
	return q
}

// Save stores value under key, replacing any existing item. Saving None,
// or Some of a nil pointer, interface, map or slice, deletes key.
func Save[T any](s *Store, value Optional[T], key string, accessibility Accessibility) error {
	if key == "" {
		return ErrEmptyKey
	}
	v, ok := value.Get()
	if !ok || isNil(v) {
		return s.Delete(key)
	}
	if !accessibility.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedAccessibility, string(accessibility))
	}

	var data []byte
	switch x := any(v).(type) {
	case string:
		data = []byte(x)
	case []byte:
		data = append([]byte{}, x...)
	default:
		encoded, err := s.codec.Encode(v)
		if err != nil {
			return err
		}
		data = encoded
	}

	q := s.baseQuery()
	q[AttrAccount] = key
	q[AttrAccessible] = accessibility
	q[AttrValueData] = data

	// Overwrite is delete + add; the backend's update primitive is never used.
	if err := s.Delete(key); err != nil {
		return err
	}
	if err := s.backend.Add(q).Err(); err != nil {
		return fmt.Errorf("keychain add %q: %w", key, err)
	}
	return nil
}

// isNil reports whether v would encode as a null placeholder. A nil []byte
// is an empty payload, not an absent one.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return rv.IsNil()
	case reflect.Slice:
		_, raw := v.([]byte)
		return !raw && rv.IsNil()
	}
	return false
}

// Value reads the credential stored under key. A missing key returns
// ok == false and no error.
func Value[T any](s *Store, key string) (T, bool, error) {
	var out T
	if key == "" {
		return out, false, ErrEmptyKey
	}

	q := s.baseQuery()
	q[AttrAccount] = key
	q[AttrReturnData] = true
	q[AttrMatchLimit] = MatchLimitOne

	status, items := s.backend.CopyMatching(q)
	if err := status.Err(); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return out, false, nil
		}
		return out, false, fmt.Errorf("keychain get %q: %w", key, err)
	}
	if len(items) == 0 || items[0].Data == nil {
		return out, false, fmt.Errorf("keychain get %q: %w", key, ErrNoData)
	}
	data := items[0].Data

	switch p := any(&out).(type) {
	case *string:
		*p = string(data)
	case *[]byte:
		*p = bytes.Clone(data)
	default:
		if err := s.codec.Decode(data, &out); err != nil {
			return out, false, err
		}
	}
	return out, true, nil
}

// AllKeys lists the account of every item in scope. An empty store yields an
// empty slice.
func (s *Store) AllKeys() ([]string, error) {
	q := s.baseQuery()
	q[AttrReturnAttributes] = true
	q[AttrReturnData] = true
	q[AttrMatchLimit] = MatchLimitAll

	status, items := s.backend.CopyMatching(q)
	if err := status.Err(); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("keychain list: %w", err)
	}

	keys := make([]string, 0, len(items))
	for _, item := range items {
		if item.Account == "" {
			s.logger.Debug("skipping item without account")
			continue
		}
		keys = append(keys, item.Account)
	}
	return keys, nil
}

// Delete removes the credential stored under key. Deleting a missing key is
// not an error.
func (s *Store) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.delete(Some(key))
}

// Clear removes every credential in scope.
func (s *Store) Clear() error {
	return s.delete(None[string]())
}

func (s *Store) delete(key Optional[string]) error {
	q := s.baseQuery()
	k, targeted := key.Get()
	if targeted {
		q[AttrAccount] = k
	}

	err := s.backend.Delete(q).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrItemNotFound) {
		if targeted {
			return fmt.Errorf("keychain delete %q: %w", k, err)
		}
		return fmt.Errorf("keychain clear: %w", err)
	}

	if !targeted {
		s.logger.Debug("clear found nothing to delete")
		return nil
	}

	keys, err := s.AllKeys()
	if err != nil {
		return err
	}
	if slices.Contains(keys, k) {
		return &DeletionError{Key: k}
	}
	s.logger.Debug("delete found nothing to delete", "key", k)
	return nil
}
