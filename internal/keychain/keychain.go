// Package keychain provides a typed facade over a generic-password secret
// store such as the macOS Keychain.
//
// Items are stored in the generic password class with:
//   - Account: the credential key (e.g. "chat/database-url")
//   - Service: an optional application namespace
//   - Access group: an optional group scope isolating stores from each other
//
// The Store never talks to the platform directly. It builds a Query for every
// operation and hands it to a Backend that implements the three Security
// framework primitives: add, copy-matching and delete.
package keychain

import (
	"fmt"
	"strings"
)

// Query attribute names. The values match the Security framework's CFString
// constants so a Query can be passed through to SecItem* unchanged.
const (
	AttrClass            = "class"
	AttrAccount          = "acct"
	AttrService          = "svce"
	AttrAccessGroup      = "agrp"
	AttrAccessible       = "pdmn"
	AttrValueData        = "v_Data"
	AttrReturnData       = "r_Data"
	AttrReturnAttributes = "r_Attributes"
	AttrMatchLimit       = "m_Limit"
)

const (
	// ClassGenericPassword is the only item class this package stores.
	ClassGenericPassword = "genp"

	MatchLimitOne = "m_LimitOne"
	MatchLimitAll = "m_LimitAll"
)

// Query is an attribute map describing one backend call. It is built per
// operation and discarded afterwards.
type Query map[string]any

func (q Query) str(attr string) (string, bool) {
	v, ok := q[attr].(string)
	return v, ok
}

// Class returns the item class marker.
func (q Query) Class() string {
	v, _ := q.str(AttrClass)
	return v
}

// Account returns the account filter, if any.
func (q Query) Account() (string, bool) { return q.str(AttrAccount) }

// Service returns the service filter, if any.
func (q Query) Service() (string, bool) { return q.str(AttrService) }

// AccessGroup returns the group scope, if any.
func (q Query) AccessGroup() (string, bool) { return q.str(AttrAccessGroup) }

// Accessible returns the requested accessibility level, if any.
func (q Query) Accessible() (Accessibility, bool) {
	v, ok := q[AttrAccessible].(Accessibility)
	return v, ok
}

// Data returns the payload to store, if any.
func (q Query) Data() ([]byte, bool) {
	v, ok := q[AttrValueData].([]byte)
	return v, ok
}

// ReturnData reports whether matched items should carry their payload.
func (q Query) ReturnData() bool {
	v, _ := q[AttrReturnData].(bool)
	return v
}

// ReturnAttributes reports whether matched items should carry their attributes.
func (q Query) ReturnAttributes() bool {
	v, _ := q[AttrReturnAttributes].(bool)
	return v
}

// MatchLimit returns MatchLimitOne or MatchLimitAll. Unset means one.
func (q Query) MatchLimit() string {
	if v, ok := q.str(AttrMatchLimit); ok {
		return v
	}
	return MatchLimitOne
}

// Item is a matched backend item. Fields are empty when the query did not
// ask for them or the backend has no value.
type Item struct {
	Account     string
	Service     string
	AccessGroup string
	Accessible  Accessibility
	Data        []byte
}

// Backend is the platform secret store. Implementations must not interpret
// the query beyond the attributes listed above.
type Backend interface {
	Add(q Query) Status
	CopyMatching(q Query) (Status, []Item)
	Delete(q Query) Status
}

// Accessibility controls when a stored item can be read.
type Accessibility string

const (
	AccessibleWhenUnlocked                   Accessibility = "ak"
	AccessibleAfterFirstUnlock               Accessibility = "ck"
	AccessibleWhenUnlockedThisDeviceOnly     Accessibility = "aku"
	AccessibleAfterFirstUnlockThisDeviceOnly Accessibility = "cku"
	AccessibleWhenPasscodeSetThisDeviceOnly  Accessibility = "akpu"
)

var accessibilityNames = map[string]Accessibility{
	"when_unlocked":                       AccessibleWhenUnlocked,
	"after_first_unlock":                  AccessibleAfterFirstUnlock,
	"when_unlocked_this_device_only":      AccessibleWhenUnlockedThisDeviceOnly,
	"after_first_unlock_this_device_only": AccessibleAfterFirstUnlockThisDeviceOnly,
	"when_passcode_set_this_device_only":  AccessibleWhenPasscodeSetThisDeviceOnly,
}

// ParseAccessibility maps a config name such as "when_unlocked" to its level.
func ParseAccessibility(name string) (Accessibility, error) {
	a, ok := accessibilityNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAccessibility, name)
	}
	return a, nil
}

// Valid reports whether a is one of the known levels.
func (a Accessibility) Valid() bool {
	for _, v := range accessibilityNames {
		if v == a {
			return true
		}
	}
	return false
}

// String returns the config name of the level.
func (a Accessibility) String() string {
	for name, v := range accessibilityNames {
		if v == a {
			return name
		}
	}
	return string(a)
}
