package keychain

import "fmt"

// Status is a backend outcome code, using OSStatus values.
type Status int32

const (
	StatusSuccess       Status = 0
	StatusParam         Status = -50
	StatusDuplicateItem Status = -25299
	StatusItemNotFound  Status = -25300
	StatusInternal      Status = -2070
)

// Err converts a status into the package's error taxonomy. Success is nil.
func (s Status) Err() error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusDuplicateItem:
		return ErrDuplicateItem
	case StatusItemNotFound:
		return ErrItemNotFound
	default:
		return &UnhandledError{Status: s}
	}
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDuplicateItem:
		return "duplicate item"
	case StatusItemNotFound:
		return "item not found"
	case StatusParam:
		return "invalid parameter"
	case StatusInternal:
		return "internal error"
	default:
		return fmt.Sprintf("status %d", int32(s))
	}
}
