package keychain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateItem is returned when an add collides with an existing
	// item. Save deletes first, so this only surfaces under races.
	ErrDuplicateItem = errors.New("duplicate keychain item")

	// ErrItemNotFound never leaves the Store; each operation normalizes it.
	ErrItemNotFound = errors.New("keychain item not found")

	// ErrNoData is returned when a matched item carries no payload.
	ErrNoData = errors.New("keychain item has no data")

	// ErrDeletionFailure is matched by *DeletionError.
	ErrDeletionFailure = errors.New("keychain deletion failed")

	ErrEmptyKey                 = errors.New("empty credential key")
	ErrUnsupportedAccessibility = errors.New("unsupported accessibility")
)

// DeletionError reports a targeted delete that found nothing while the key
// is still listed afterwards.
type DeletionError struct {
	Key string
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("keychain deletion failed for %q", e.Key)
}

func (e *DeletionError) Is(target error) bool { return target == ErrDeletionFailure }

// UnhandledError carries any status the Store has no specific error for.
type UnhandledError struct {
	Status Status
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("unhandled keychain status %d", int32(e.Status))
}
