// Package id defines TypeID-based identifiers for subledger records.
//
// Assets are numbered sequentially. Receipts and settlement references carry
// a TypeID ("rcpt_..." and "stl_..."), which sorts by creation time.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix is the record type encoded in an ID.
type Prefix string

const (
	PrefixReceipt    Prefix = "rcpt"
	PrefixSettlement Prefix = "stl"
)

// ID is a prefixed TypeID. The zero value is Nil.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	tid typeid.TypeID
	set bool
}

// Nil is the zero ID.
var Nil ID

// New generates an ID under prefix. An invalid prefix is a programming error
// and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", prefix, err))
	}
	return ID{tid: tid, set: true}
}

// Parse decodes any "prefix_suffix" string.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, set: true}, nil
}

// ParseWithPrefix is Parse restricted to one record type.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := parsed.Prefix(); got != want {
		return Nil, fmt.Errorf("id: %q has prefix %q, want %q", s, got, want)
	}
	return parsed, nil
}

// ReceiptID identifies a purchase receipt.
type ReceiptID = ID

// SettlementID identifies a payment settlement.
type SettlementID = ID

func NewReceiptID() ReceiptID { return New(PrefixReceipt) }
func NewSettlementID() SettlementID { return New(PrefixSettlement) }

func ParseReceiptID(s string) (ReceiptID, error) { return ParseWithPrefix(s, PrefixReceipt) }

func ParseSettlementID(s string) (SettlementID, error) {
	return ParseWithPrefix(s, PrefixSettlement)
}

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.set {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the record type, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.set {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

func (i ID) IsNil() bool { return !i.set }

// MarshalText implements encoding.TextMarshaler. Nil encodes as "".
func (i ID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
