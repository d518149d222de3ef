// Package cid generates container identifiers: 128 bits of OS randomness
// rendered as a 32-character lowercase hex string, with no separators.
package cid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID is a container identifier.
type ID [16]byte

// New mints a fresh identifier. It panics if the OS random source is
// unreadable, which spec.md treats as a fatal, unrecoverable condition —
// there is no sane fallback to a weaker source for container identity.
func New() ID {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		panic(fmt.Sprintf("cid: reading random source: %v", err))
	}
	return id
}

// String renders the identifier as 32 lowercase hex characters.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Parse decodes a 32-character lowercase hex string back into an ID.
func Parse(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("cid: expected %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// MarshalText lets an ID round-trip through encoding/json (and anything
// else that understands encoding.TextMarshaler) as its hex string, rather
// than as a raw byte array.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
