// Package node defines the identity shared by the reconciler, the patch
// stream and the native tree applier.
package node

import (
	"bytes"

	"github.com/google/uuid"
)

// ID identifies one logical view node across reconciliation passes.
// IDs are minted once with New and never reused.
type ID uuid.UUID

// Nil is the zero ID. It never names a node.
var Nil ID

// New returns a fresh random identity.
func New() ID {
	return ID(uuid.New())
}

// Parse decodes the canonical string form produced by String.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, err
	}
	return ID(u), nil
}

// String returns the canonical hyphenated form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first eight hex digits, for logs.
func (id ID) Short() string {
	return id.String()[:8]
}

// IsNil reports whether id is the zero ID.
func (id ID) IsNil() bool {
	return id == Nil
}

// Bytes returns the 16 raw bytes of the identity.
func (id ID) Bytes() []byte {
	b := make([]byte, len(id))
	copy(b, id[:])
	return b
}

// Compare orders IDs bytewise. The order carries no meaning beyond being
// total; it backs sorted indexes only.
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(data []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(data); err != nil {
		return err
	}
	*id = ID(u)
	return nil
}
