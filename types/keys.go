package types

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Address is an account or contract identifier.
type Address = ethcommon.Address

// ZeroAddress is the all-zero address. At the external boundary it denotes
// the native currency (as a token) or the default pricing key (as a
// beneficiary).
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed hex address.
func ParseAddress(s string) (Address, error) {
	if !ethcommon.IsHexAddress(s) {
		return Address{}, fmt.Errorf("types: invalid address %q", s)
	}
	return ethcommon.HexToAddress(s), nil
}

type keyKind uint8

const (
	kindSentinel keyKind = iota
	kindAccount
)

// ──────────────────────────────────────────────────
// Token
// ──────────────────────────────────────────────────

// Token identifies a payment medium: the native settlement currency or an
// external fungible token.
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for decoding.
type Token struct {
	kind keyKind
	addr Address
}

// Native returns the native currency key.
func Native() Token { return Token{kind: kindSentinel} }

// ERC20 returns the key of a fungible token contract. The zero address maps
// to Native.
func ERC20(addr Address) Token { return TokenFromAddress(addr) }

// TokenFromAddress maps a boundary address to a Token.
func TokenFromAddress(addr Address) Token {
	if addr == ZeroAddress {
		return Native()
	}
	return Token{kind: kindAccount, addr: addr}
}

// IsNative reports whether t is the native currency.
func (t Token) IsNative() bool { return t.kind == kindSentinel }

// Address returns the boundary representation of t.
func (t Token) Address() Address {
	if t.IsNative() {
		return ZeroAddress
	}
	return t.addr
}

// Key returns the storage key of t.
func (t Token) Key() string { return t.Address().Hex() }

// String implements fmt.Stringer.
func (t Token) String() string {
	if t.IsNative() {
		return "native"
	}
	return t.addr.Hex()
}

// ──────────────────────────────────────────────────
// Beneficiary
// ──────────────────────────────────────────────────

// Beneficiary is a pricing key: the default key or a specific account.
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for decoding.
type Beneficiary struct {
	kind keyKind
	addr Address
}

// DefaultBeneficiary returns the fallback pricing key.
func DefaultBeneficiary() Beneficiary { return Beneficiary{kind: kindSentinel} }

// Account returns the pricing key of an account. The zero address maps to the
// default key.
func Account(addr Address) Beneficiary { return BeneficiaryFromAddress(addr) }

// BeneficiaryFromAddress maps a boundary address to a Beneficiary.
func BeneficiaryFromAddress(addr Address) Beneficiary {
	if addr == ZeroAddress {
		return DefaultBeneficiary()
	}
	return Beneficiary{kind: kindAccount, addr: addr}
}

// IsDefault reports whether b is the default pricing key.
func (b Beneficiary) IsDefault() bool { return b.kind == kindSentinel }

// Address returns the boundary representation of b.
func (b Beneficiary) Address() Address {
	if b.IsDefault() {
		return ZeroAddress
	}
	return b.addr
}

// Key returns the storage key of b.
func (b Beneficiary) Key() string { return b.Address().Hex() }

// String implements fmt.Stringer.
func (b Beneficiary) String() string {
	if b.IsDefault() {
		return "default"
	}
	return b.addr.Hex()
}

// ──────────────────────────────────────────────────
// Encoding
// ──────────────────────────────────────────────────

// MarshalText encodes t as its boundary address.
func (t Token) MarshalText() ([]byte, error) { return []byte(t.Key()), nil }

// UnmarshalText decodes a boundary address. "native" and the zero address
// both decode to Native.
func (t *Token) UnmarshalText(data []byte) error {
	s := string(data)
	if s == "" || s == "native" {
		*t = Native()
		return nil
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*t = TokenFromAddress(addr)
	return nil
}

// MarshalText encodes b as its boundary address.
func (b Beneficiary) MarshalText() ([]byte, error) { return []byte(b.Key()), nil }

// UnmarshalText decodes a boundary address. "default" and the zero address
// both decode to DefaultBeneficiary.
func (b *Beneficiary) UnmarshalText(data []byte) error {
	s := string(data)
	if s == "" || s == "default" {
		*b = DefaultBeneficiary()
		return nil
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*b = BeneficiaryFromAddress(addr)
	return nil
}
