// Package types provides common types used across subledger.
package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// Arithmetic guard errors.
var (
	ErrOverflow  = errors.New("subledger: arithmetic overflow")
	ErrUnderflow = errors.New("subledger: arithmetic underflow")
)

// Amount is a non-negative quantity in the smallest unit of a payment token.
// It is a fixed-width 256-bit unsigned integer; every arithmetic operation is
// checked and never wraps.
//
// The zero value is a valid zero amount.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for decoding.
type Amount struct {
	v uint256.Int
}

// NewAmount creates an Amount from a uint64.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ZeroAmount returns the zero Amount.
func ZeroAmount() Amount { return Amount{} }

// MaxAmount returns the largest representable Amount (2^256 - 1).
func MaxAmount() Amount {
	var a Amount
	a.v.SetAllOne()
	return a
}

// ParseAmount parses a base-10 string. A leading minus sign fails with
// ErrUnderflow and values above MaxAmount fail with ErrOverflow.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("types: parse amount: empty string")
	}
	if strings.HasPrefix(s, "-") {
		if strings.Trim(s[1:], "0") == "" && len(s) > 1 {
			return Amount{}, nil
		}
		return Amount{}, fmt.Errorf("types: parse amount %q: %w", s, ErrUnderflow)
	}

	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("types: parse amount %q: invalid decimal", s)
	}
	return AmountFromBig(b)
}

// MustParseAmount is like ParseAmount but panics on error. Use for constants.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromBig converts a big.Int, rejecting values outside [0, MaxAmount].
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Amount{}, nil
	}
	if b.Sign() < 0 {
		return Amount{}, ErrUnderflow
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return Amount{}, ErrOverflow
	}
	return Amount{v: *v}, nil
}

// ──────────────────────────────────────────────────
// Checked arithmetic
// ──────────────────────────────────────────────────

// CheckedAdd returns a + b or ErrOverflow.
func CheckedAdd(a, b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

// CheckedSub returns a - b or ErrUnderflow.
func CheckedSub(a, b Amount) (Amount, error) {
	var out Amount
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, ErrUnderflow
	}
	return out, nil
}

// CheckedMul returns a * b or ErrOverflow.
func CheckedMul(a, b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.MulOverflow(&a.v, &b.v); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

// MulUnits multiplies a per-unit amount by a unit count.
func (a Amount) MulUnits(units uint64) (Amount, error) {
	return CheckedMul(a, NewAmount(units))
}

// Sum adds all values, failing on the first overflow.
func Sum(values ...Amount) (Amount, error) {
	var total Amount
	for _, v := range values {
		next, err := CheckedAdd(total, v)
		if err != nil {
			return Amount{}, err
		}
		total = next
	}
	return total, nil
}

// ──────────────────────────────────────────────────
// Comparison
// ──────────────────────────────────────────────────

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.v.Lt(&b.v) }

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.v.Gt(&b.v) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.v.Eq(&b.v) }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// IsMax reports whether the amount equals MaxAmount.
func (a Amount) IsMax() bool {
	m := MaxAmount()
	return a.v.Eq(&m.v)
}

// ──────────────────────────────────────────────────
// Conversion and encoding
// ──────────────────────────────────────────────────

// Big returns the amount as a new big.Int.
func (a Amount) Big() *big.Int { return a.v.ToBig() }

// Uint64 returns the amount and whether it fits in a uint64.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

// String returns the base-10 representation.
func (a Amount) String() string { return a.v.Dec() }

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) { return []byte(a.v.Dec()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a quoted decimal string so that values
// beyond 2^53 survive JSON consumers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.v.Dec() + `"`), nil
}

// UnmarshalJSON accepts a JSON string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*a = Amount{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("types: decode amount %s: %w", s, err)
		}
		s = unquoted
	} else if strings.Contains(s, `"`) {
		return fmt.Errorf("types: decode amount %s: unbalanced quote", s)
	}
	return a.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer. Amounts are stored as decimal text.
func (a Amount) Value() (driver.Value, error) { return a.v.Dec(), nil }

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		if v < 0 {
			return ErrUnderflow
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Amount", src)
	}
}
